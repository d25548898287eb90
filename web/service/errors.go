package service

import "errors"

var (
	ErrUnknownEmail    = errors.New("no account with this email")
	ErrInvalidPassword = errors.New("wrong password")
	ErrInvalidRole     = errors.New("unknown role")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrLoginRequired   = errors.New("login required")
	ErrEmptyField      = errors.New("required field is empty")
)
