package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, otp *OTPService) {
	r.Post("/signup", func(c *fiber.Ctx) error {
		var req UserCreateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		user, tokens, err := svc.SignUp(c.Context(), req)
		if err != nil {
			return fiber.NewError(signUpStatus(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user, "tokens": tokens})
	})

	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil || req.Username == "" || req.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "username and password required")
		}
		_, resp, err := svc.Login(c.Context(), req)
		if errors.Is(err, ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(resp)
	})

	r.Post("/refresh", func(c *fiber.Ctx) error {
		var req RefreshRequest
		if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
			return fiber.NewError(fiber.StatusBadRequest, "refreshToken required")
		}
		resp, err := svc.Refresh(c.Context(), req.RefreshToken)
		if errors.Is(err, ErrInvalidRefresh) {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(resp)
	})

	r.Get("/jwt/verify", func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := svc.ValidateAccessToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return c.JSON(fiber.Map{"userId": claims.UserID, "username": claims.Username})
	})

	r.Post("/otp/send", func(c *fiber.Ctx) error {
		var req OTPRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		ttl, err := otp.Send(c.Context(), req)
		if err != nil {
			return fiber.NewError(otpStatus(err), err.Error())
		}
		return c.JSON(OTPResponse{
			Status:  fiber.StatusOK,
			Message: "OTP sent, valid for " + ttl.String(),
		})
	})

	r.Post("/otp/verify", func(c *fiber.Ctx) error {
		var req OTPVerifyRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if err := otp.Verify(c.Context(), req); err != nil {
			return fiber.NewError(otpStatus(err), err.Error())
		}
		return c.JSON(OTPResponse{Status: fiber.StatusOK, Message: "OTP verified"})
	})
}

func signUpStatus(err error) int {
	switch {
	case errors.Is(err, ErrUsernameTaken):
		return fiber.StatusConflict
	case errors.Is(err, ErrOTPNotVerified):
		return fiber.StatusForbidden
	case errors.Is(err, ErrOTPUnavailable):
		return fiber.StatusServiceUnavailable
	case isValidationError(err):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func otpStatus(err error) int {
	switch {
	case errors.Is(err, ErrOTPUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, ErrOTPExpired), errors.Is(err, ErrInvalidOTP):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrTooManyAttempts):
		return fiber.StatusTooManyRequests
	case isValidationError(err):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
