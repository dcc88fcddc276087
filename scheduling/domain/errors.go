package domain

import "errors"

var (
	ErrCastNotFound = errors.New("cast not found")
	ErrUserNotFound = errors.New("user not found")
)
