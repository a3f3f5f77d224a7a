package services

import "errors"

var (
	ErrBadCreds     = errors.New("invalid email or password")
	ErrEmailTaken   = errors.New("an account with this email already exists")
	ErrBadToken     = errors.New("invalid or expired sign-in link")
	ErrThrottled    = errors.New("too many requests, try again later")
	ErrAuthRequired = errors.New("sign in required")
	ErrForbidden    = errors.New("not allowed")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("product is no longer available")
	ErrQuotaReached = errors.New("comment limit reached for this product")
	ErrInvalid      = errors.New("invalid input")
	ErrImageMissing = errors.New("an image is required")
)
