package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

var errDB = errors.New("db down")

func validSignUp() UserCreateRequest {
	return UserCreateRequest{
		Username: "0912345678",
		Password: "password123",
		Details: UserDetails{
			Name:     "Nguyen Van A",
			PhoneNum: "0912345678",
			Email:    "a@example.com",
			Dob:      "01/01/2000",
		},
	}
}

func expectUserInsert(mock pgxmock.PgxPoolIface, req UserCreateRequest) *pgxmock.ExpectedQuery {
	return mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), req.Username, pgxmock.AnyArg(), req.Details.Name, req.Details.PhoneNum, req.Details.Email, req.Details.Dob)
}

func userRows(id, username, hash string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "username", "password_hash", "name", "phone_num", "email", "dob", "created_at", "updated_at"}).
		AddRow(id, username, hash, "Nguyen Van A", username, "", "01/01/2000", now, now)
}

func TestSignUpAndLogin(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	req := validSignUp()
	now := time.Now()
	expectUserInsert(mock, req).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService("test-secret", mock, nil)
	user, tokens, err := svc.SignUp(context.Background(), req)
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.ID == "" || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected user and tokens")
	}
	if tokens.TokenType != "Bearer" || tokens.ExpiresIn != int64(accessTokenTTL.Seconds()) {
		t.Fatalf("unexpected token metadata: %+v", tokens)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		t.Fatalf("password not hashed with bcrypt: %v", err)
	}

	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs(req.Username).
		WillReturnRows(userRows(user.ID, req.Username, user.PasswordHash))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), user.ID, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	loggedIn, loginTokens, err := svc.Login(context.Background(), LoginRequest{Username: req.Username, Password: req.Password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.Username != req.Username || loginTokens.AccessToken == "" {
		t.Fatalf("unexpected login result: %+v", loggedIn)
	}

	claims, err := svc.ValidateAccessToken(loginTokens.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != req.Username {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	svc := NewService("test-secret", nil, nil)

	cases := []struct {
		name   string
		mutate func(*UserCreateRequest)
	}{
		{"short password", func(r *UserCreateRequest) { r.Password = "short" }},
		{"bad username", func(r *UserCreateRequest) { r.Username = "abc" }},
		{"bad phone", func(r *UserCreateRequest) { r.Details.PhoneNum = "12" }},
		{"bad dob", func(r *UserCreateRequest) { r.Details.Dob = "2000-01-01" }},
		{"future dob", func(r *UserCreateRequest) { r.Details.Dob = "01/01/2999" }},
		{"missing name", func(r *UserCreateRequest) { r.Details.Name = "" }},
		{"bad email", func(r *UserCreateRequest) { r.Details.Email = "not-an-email" }},
		{"phone differs from username", func(r *UserCreateRequest) { r.Details.PhoneNum = "0987654321" }},
	}
	for _, tc := range cases {
		req := validSignUp()
		tc.mutate(&req)
		_, _, err := svc.SignUp(context.Background(), req)
		if !isValidationError(err) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestSignUpUsernameTaken(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	req := validSignUp()
	expectUserInsert(mock, req).WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	_, _, err = NewService("secret", mock, nil).SignUp(context.Background(), req)
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestSignUpDBError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	req := validSignUp()
	expectUserInsert(mock, req).WillReturnError(errDB)

	_, _, err = NewService("secret", mock, nil).SignUp(context.Background(), req)
	if !errors.Is(err, errDB) {
		t.Fatalf("expected db error, got %v", err)
	}
}

func TestSignUpHashError(t *testing.T) {
	orig := hashPasswordFn
	hashPasswordFn = func([]byte, int) ([]byte, error) {
		return nil, errors.New("hash failed")
	}
	defer func() { hashPasswordFn = orig }()

	_, _, err := NewService("secret", nil, nil).SignUp(context.Background(), validSignUp())
	if err == nil {
		t.Fatalf("expected hash error")
	}
}

func TestSignUpGenerateTokensError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	req := validSignUp()
	now := time.Now()
	expectUserInsert(mock, req).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errDB)

	_, _, err = NewService("secret", mock, nil).SignUp(context.Background(), req)
	if !errors.Is(err, errDB) {
		t.Fatalf("expected token save error, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("0900000000").
		WillReturnError(pgx.ErrNoRows)

	_, _, err = NewService("secret", mock, nil).Login(context.Background(), LoginRequest{Username: "0900000000", Password: "x"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestLoginInvalidPassword(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("0912345678").
		WillReturnRows(userRows("user-1", "0912345678", string(hash)))

	_, _, err = NewService("secret", mock, nil).Login(context.Background(), LoginRequest{Username: "0912345678", Password: "wrong-password"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestLoginQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("0912345678").
		WillReturnError(errDB)

	_, _, err = NewService("secret", mock, nil).Login(context.Background(), LoginRequest{Username: "0912345678", Password: "x"})
	if !errors.Is(err, errDB) {
		t.Fatalf("expected db error, got %v", err)
	}
}

func TestGenerateTokensSignErrors(t *testing.T) {
	orig := signTokenFn
	defer func() { signTokenFn = orig }()

	calls := 0
	signTokenFn = func(s *Service, userID, username string, ttl time.Duration) (string, error) {
		calls++
		if ttl == refreshTokenTTL {
			return "", errors.New("refresh sign failed")
		}
		return orig(s, userID, username, ttl)
	}
	if _, err := NewService("secret", nil, nil).GenerateTokens(context.Background(), "user-1", "0912345678"); err == nil {
		t.Fatalf("expected refresh sign error")
	}
	if calls != 2 {
		t.Fatalf("expected access then refresh signing, got %d calls", calls)
	}

	signTokenFn = func(*Service, string, string, time.Duration) (string, error) {
		return "", errors.New("access sign failed")
	}
	if _, err := NewService("secret", nil, nil).GenerateTokens(context.Background(), "user-1", "0912345678"); err == nil {
		t.Fatalf("expected access sign error")
	}
}

func TestRefresh(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService("test-secret", mock, nil)
	refresh, err := svc.signToken("user-1", "0912345678", refreshTokenTTL)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(refresh).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-1", time.Now().Add(time.Hour)))
	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at`).
		WithArgs(refresh).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tokens, err := svc.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == refresh {
		t.Fatalf("expected a fresh token pair")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshRevokesPresentedToken(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService("test-secret", mock, nil)
	refresh, _ := svc.signToken("user-1", "0912345678", refreshTokenTTL)

	// Lost the race to a concurrent refresh of the same token.
	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(refresh).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-1", time.Now().Add(time.Hour)))
	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at`).
		WithArgs(refresh).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	if _, err := svc.Refresh(context.Background(), refresh); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh for already revoked token, got %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(refresh).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-1", time.Now().Add(time.Hour)))
	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at`).
		WithArgs(refresh).
		WillReturnError(errDB)
	if _, err := svc.Refresh(context.Background(), refresh); !errors.Is(err, errDB) {
		t.Fatalf("expected db error, got %v", err)
	}

	// Once revoked the lookup filters the row out.
	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(refresh).
		WillReturnError(pgx.ErrNoRows)
	if _, err := svc.Refresh(context.Background(), refresh); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh on reuse, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshRejected(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService("test-secret", mock, nil)
	if _, err := svc.Refresh(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh for garbage, got %v", err)
	}

	refresh, _ := svc.signToken("user-1", "0912345678", refreshTokenTTL)

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(refresh).
		WillReturnError(pgx.ErrNoRows)
	if _, err := svc.Refresh(context.Background(), refresh); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh for unknown token, got %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(refresh).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-1", time.Now().Add(-time.Minute)))
	if _, err := svc.Refresh(context.Background(), refresh); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh for expired row, got %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(refresh).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("someone-else", time.Now().Add(time.Hour)))
	if _, err := svc.Refresh(context.Background(), refresh); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh for owner mismatch, got %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(refresh).
		WillReturnError(errDB)
	if _, err := svc.Refresh(context.Background(), refresh); !errors.Is(err, errDB) {
		t.Fatalf("expected db error, got %v", err)
	}
}

func TestParseTokenRejectsOtherSecretAndMethod(t *testing.T) {
	token, _ := NewService("other", nil, nil).signToken("user-1", "0912345678", accessTokenTTL)
	if _, err := NewService("secret", nil, nil).ValidateAccessToken(token); err == nil {
		t.Fatalf("expected signature error")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := NewService("secret", nil, nil).ValidateAccessToken(unsigned); err == nil {
		t.Fatalf("expected alg none to be rejected")
	}
}

func TestParseTokenClaimsTypeMismatch(t *testing.T) {
	orig := parseWithClaimsFn
	parseWithClaimsFn = func(string, jwt.Claims, jwt.Keyfunc, ...jwt.ParserOption) (*jwt.Token, error) {
		return &jwt.Token{Claims: jwt.MapClaims{}, Valid: true}, nil
	}
	defer func() { parseWithClaimsFn = orig }()

	if _, err := NewService("secret", nil, nil).ValidateAccessToken("x"); err == nil {
		t.Fatalf("expected claims type error")
	}
}
