package error

import "net/http"

type ContentTooLongError string

func (err ContentTooLongError) Error() string {
	return string(err)
}

func (err ContentTooLongError) ErrCode() string {
	return "CONTENT_TOO_LONG_ERROR"
}

func (err ContentTooLongError) StatusCode() int {
	return http.StatusBadRequest
}
