package auth

import "time"

type OTPPurpose string

const (
	OTPPurposeSignup        OTPPurpose = "SIGNUP"
	OTPPurposeResetPassword OTPPurpose = "RESET_PASSWORD"
)

func (p OTPPurpose) Valid() bool {
	return p == OTPPurposeSignup || p == OTPPurposeResetPassword
}

type UserDetails struct {
	Name     string `json:"name" validate:"required,max=100"`
	PhoneNum string `json:"phoneNum" validate:"required,phone"`
	Email    string `json:"email" validate:"omitempty,email"`
	Dob      string `json:"dob" validate:"required,dob"`
}

type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"-"`
	Details      UserDetails `json:"details"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type UserCreateRequest struct {
	Username string      `json:"username" validate:"required,phone"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	Details  UserDetails `json:"details"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type OTPRequest struct {
	Username    string     `json:"username" validate:"required,phone"`
	PhoneNumber string     `json:"phoneNumber" validate:"required,phone,eqfield=Username"`
	Purpose     OTPPurpose `json:"purpose" validate:"required,oneof=SIGNUP RESET_PASSWORD"`
}

type OTPVerifyRequest struct {
	Username string     `json:"username" validate:"required"`
	OTP      string     `json:"otp" validate:"required,len=6,numeric"`
	Purpose  OTPPurpose `json:"purpose" validate:"required,oneof=SIGNUP RESET_PASSWORD"`
}

type OTPResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}
