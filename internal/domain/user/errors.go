package user

import "errors"

var (
	ErrNotFound     = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidEmail = errors.New("invalid email address")
	// store did not answer within the request deadline, pool wait included
	ErrStoreTimeout = errors.New("store timed out")
)
