package rental

import (
	"errors"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/auth"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/station"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/trip"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/unlock", authMiddleware, func(c *fiber.Ctx) error {
		var req UnlockRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		started, err := svc.Unlock(c.Context(), auth.Username(c), req.QR)
		if err != nil {
			return rentalError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(started)
	})

	r.Post("/:id/points", authMiddleware, func(c *fiber.Ctx) error {
		var req PointRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		event, err := svc.AddPoint(c.Context(), auth.Username(c), c.Params("id"), req)
		if err != nil {
			return rentalError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(event)
	})

	r.Post("/:id/end", authMiddleware, func(c *fiber.Ctx) error {
		var req EndRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
			}
		}
		receipt, err := svc.End(c.Context(), auth.Username(c), c.Params("id"), req)
		if err != nil {
			return rentalError(err)
		}
		return c.JSON(receipt)
	})
}

func rentalError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidQR):
		return fiber.NewError(fiber.StatusBadRequest, InvalidQRMessage)
	case errors.Is(err, ErrInvalidPoint):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, station.ErrBikeNotFound), errors.Is(err, trip.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, station.ErrBikeUnavailable), errors.Is(err, ErrRideInProgress), errors.Is(err, trip.ErrNotActive):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
