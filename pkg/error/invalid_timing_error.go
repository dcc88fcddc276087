package error

import "net/http"

type InvalidTimingError string

func (err InvalidTimingError) Error() string {
	return string(err)
}

func (err InvalidTimingError) ErrCode() string {
	return "INVALID_TIMING_ERROR"
}

func (err InvalidTimingError) StatusCode() int {
	return http.StatusBadRequest
}
