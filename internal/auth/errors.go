package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("refresh token invalid")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrOTPNotVerified     = errors.New("phone number not verified")
	ErrOTPUnavailable     = errors.New("otp store unavailable")
	ErrOTPExpired         = errors.New("otp expired or not requested")
	ErrInvalidOTP         = errors.New("otp does not match")
	ErrTooManyAttempts    = errors.New("too many otp attempts")
)
