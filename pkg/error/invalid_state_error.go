package error

import "net/http"

type InvalidStateError string

func (err InvalidStateError) Error() string {
	return string(err)
}

func (err InvalidStateError) ErrCode() string {
	return "INVALID_STATE_ERROR"
}

func (err InvalidStateError) StatusCode() int {
	return http.StatusConflict
}
