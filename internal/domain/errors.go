package domain

import "errors"

var (
	ErrEmptyMessage       = errors.New("empty message")
	ErrMessageTooLong     = errors.New("message too long")
	ErrSelfMessage        = errors.New("cannot message yourself")
	ErrIdentityNotFound   = errors.New("user not found")
	ErrInvalidInteraction = errors.New("invalid message interaction")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrStorage            = errors.New("storage failure")
)
