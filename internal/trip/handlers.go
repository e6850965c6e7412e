package trip

import (
	"errors"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the trip history queries. Both routes only serve the
// caller's own records.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	owner := auth.SameUser("username")

	r.Get("/:username", authMiddleware, owner, func(c *fiber.Ctx) error {
		trips, err := svc.ListByUser(c.Context(), c.Params("username"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(QueryResponse{Data: trips})
	})

	r.Get("/:username/:id", authMiddleware, owner, func(c *fiber.Ctx) error {
		trip, err := svc.Get(c.Context(), c.Params("username"), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(trip)
	})
}
