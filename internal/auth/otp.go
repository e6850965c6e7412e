package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	verifiedTTL    = 15 * time.Minute
	maxOTPAttempts = 5
)

// Sender delivers a one-time password to the user's phone.
type Sender interface {
	Send(ctx context.Context, phoneNumber, code string, purpose OTPPurpose) error
}

// LogSender writes codes to the process log. It stands in for an SMS gateway
// in development deployments.
type LogSender struct{}

func (LogSender) Send(_ context.Context, phoneNumber, code string, purpose OTPPurpose) error {
	log.Printf("otp %s for %s: %s", purpose, phoneNumber, code)
	return nil
}

// OTPService stores one-time passwords in redis. A nil *OTPService reports
// ErrOTPUnavailable from every method.
type OTPService struct {
	rdb    *redis.Client
	ttl    time.Duration
	sender Sender
}

var generateCodeFn = func() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func NewOTPService(rdb *redis.Client, ttl time.Duration, sender Sender) *OTPService {
	if rdb == nil {
		return nil
	}
	if sender == nil {
		sender = LogSender{}
	}
	return &OTPService{rdb: rdb, ttl: ttl, sender: sender}
}

// Send generates a fresh code, replacing any pending one, and hands it to the sender.
func (s *OTPService) Send(ctx context.Context, req OTPRequest) (time.Duration, error) {
	if s == nil {
		return 0, ErrOTPUnavailable
	}
	if err := validate.Struct(req); err != nil {
		return 0, validationError(err)
	}
	code, err := generateCodeFn()
	if err != nil {
		return 0, err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, otpKey(req.Purpose, req.Username), code, s.ttl)
	pipe.Set(ctx, phoneKey(req.Purpose, req.Username), req.PhoneNumber, s.ttl)
	pipe.Del(ctx, attemptsKey(req.Purpose, req.Username))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	if err := s.sender.Send(ctx, req.PhoneNumber, code, req.Purpose); err != nil {
		return 0, fmt.Errorf("deliver otp: %w", err)
	}
	return s.ttl, nil
}

// Verify checks the code. A match consumes it and marks the phone number the
// code was sent to as verified for the username and purpose.
func (s *OTPService) Verify(ctx context.Context, req OTPVerifyRequest) error {
	if s == nil {
		return ErrOTPUnavailable
	}
	if err := validate.Struct(req); err != nil {
		return validationError(err)
	}

	key := otpKey(req.Purpose, req.Username)
	stored, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrOTPExpired
	}
	if err != nil {
		return err
	}

	attempts, err := s.rdb.Incr(ctx, attemptsKey(req.Purpose, req.Username)).Result()
	if err != nil {
		return err
	}
	if attempts == 1 {
		s.rdb.Expire(ctx, attemptsKey(req.Purpose, req.Username), s.ttl)
	}
	if attempts > maxOTPAttempts {
		s.rdb.Del(ctx, key, phoneKey(req.Purpose, req.Username))
		return ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(req.OTP)) != 1 {
		return ErrInvalidOTP
	}

	phone, err := s.rdb.Get(ctx, phoneKey(req.Purpose, req.Username)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrOTPExpired
	}
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key, attemptsKey(req.Purpose, req.Username), phoneKey(req.Purpose, req.Username))
	pipe.Set(ctx, verifiedKey(req.Purpose, req.Username), phone, verifiedTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// Verified reports whether phone passed OTP verification for username and
// purpose. The marker stays in place until ClearVerified.
func (s *OTPService) Verified(ctx context.Context, username, phone string, purpose OTPPurpose) (bool, error) {
	if s == nil {
		return false, ErrOTPUnavailable
	}
	stored, err := s.rdb.Get(ctx, verifiedKey(purpose, username)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(phone)) == 1, nil
}

// ClearVerified removes the marker once it has been used.
func (s *OTPService) ClearVerified(ctx context.Context, username string, purpose OTPPurpose) error {
	if s == nil {
		return ErrOTPUnavailable
	}
	return s.rdb.Del(ctx, verifiedKey(purpose, username)).Err()
}

func otpKey(purpose OTPPurpose, username string) string {
	return "otp:" + string(purpose) + ":" + username
}

func attemptsKey(purpose OTPPurpose, username string) string {
	return otpKey(purpose, username) + ":attempts"
}

func phoneKey(purpose OTPPurpose, username string) string {
	return otpKey(purpose, username) + ":phone"
}

func verifiedKey(purpose OTPPurpose, username string) string {
	return otpKey(purpose, username) + ":verified"
}
