package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour

	uniqueViolationCode = "23505"
)

type Service struct {
	secret      []byte
	db          db.Querier
	otp         *OTPService
	otpRequired bool
}

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

var (
	hashPasswordFn    = bcrypt.GenerateFromPassword
	parseWithClaimsFn = jwt.ParseWithClaims
	signTokenFn       = (*Service).signToken
)

// NewService wires the account service. When otp is non-nil, sign-up requires
// a phone number verified through it.
func NewService(secret string, db db.Querier, otp *OTPService) *Service {
	return &Service{
		secret:      []byte(secret),
		db:          db,
		otp:         otp,
		otpRequired: otp != nil,
	}
}

// RequireOTP makes sign-up demand a verified phone even when the OTP store is
// missing, in which case sign-up fails with ErrOTPUnavailable.
func (s *Service) RequireOTP() *Service {
	s.otpRequired = true
	return s
}

func (s *Service) SignUp(ctx context.Context, req UserCreateRequest) (User, TokenResponse, error) {
	if err := validate.Struct(req); err != nil {
		return User{}, TokenResponse{}, validationError(err)
	}
	if s.otpRequired {
		verified, err := s.otp.Verified(ctx, req.Username, req.Details.PhoneNum, OTPPurposeSignup)
		if err != nil {
			return User{}, TokenResponse{}, err
		}
		if !verified {
			return User{}, TokenResponse{}, ErrOTPNotVerified
		}
	}

	hash, err := hashPasswordFn([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, TokenResponse{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: string(hash),
		Details:      req.Details,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, username, password_hash, name, phone_num, email, dob)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at
	`, user.ID, user.Username, user.PasswordHash, user.Details.Name, user.Details.PhoneNum, user.Details.Email, user.Details.Dob)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return User{}, TokenResponse{}, ErrUsernameTaken
		}
		return User{}, TokenResponse{}, err
	}
	if s.otpRequired {
		if err := s.otp.ClearVerified(ctx, user.Username, OTPPurposeSignup); err != nil {
			log.Printf("auth: clear otp marker for %s: %v", user.Username, err)
		}
	}

	tokens, err := s.GenerateTokens(ctx, user.ID, user.Username)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (User, TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, username, password_hash, name, phone_num, email, dob, created_at, updated_at
		FROM users WHERE username = $1
	`, req.Username)

	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Details.Name, &user.Details.PhoneNum,
		&user.Details.Email, &user.Details.Dob, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, TokenResponse{}, ErrInvalidCredentials
		}
		return User{}, TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return User{}, TokenResponse{}, ErrInvalidCredentials
	}

	tokens, err := s.GenerateTokens(ctx, user.ID, user.Username)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (s *Service) GenerateTokens(ctx context.Context, userID, username string) (TokenResponse, error) {
	access, err := signTokenFn(s, userID, username, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := signTokenFn(s, userID, username, refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if err := s.saveRefreshToken(ctx, refresh, userID, refreshTokenTTL); err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

// Refresh exchanges a stored, unexpired refresh token for a new token pair.
// The presented token is revoked, so each refresh token works once.
func (s *Service) Refresh(ctx context.Context, token string) (TokenResponse, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return TokenResponse{}, ErrInvalidRefresh
	}

	userID, expiresAt, err := s.lookupRefreshToken(ctx, token)
	if errors.Is(err, pgx.ErrNoRows) {
		return TokenResponse{}, ErrInvalidRefresh
	}
	if err != nil {
		return TokenResponse{}, err
	}
	if userID != claims.UserID || time.Now().After(expiresAt) {
		return TokenResponse{}, ErrInvalidRefresh
	}
	revoked, err := s.revokeRefreshToken(ctx, token)
	if err != nil {
		return TokenResponse{}, err
	}
	if !revoked {
		return TokenResponse{}, ErrInvalidRefresh
	}
	return s.GenerateTokens(ctx, claims.UserID, claims.Username)
}

func (s *Service) ValidateAccessToken(token string) (*Claims, error) {
	return s.parseToken(token)
}

func (s *Service) signToken(userID, username string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := parseWithClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func (s *Service) saveRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), userID, token, time.Now().Add(ttl))
	return err
}

// revokeRefreshToken reports false when another request revoked the token first.
func (s *Service) revokeRefreshToken(ctx context.Context, token string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = now()
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Service) lookupRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	var userID string
	var expiresAt time.Time
	if err := row.Scan(&userID, &expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return userID, expiresAt, nil
}
