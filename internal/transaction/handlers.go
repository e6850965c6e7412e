package transaction

import (
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/:username", authMiddleware, auth.SameUser("username"), func(c *fiber.Ctx) error {
		txns, err := svc.ListByUser(c.Context(), c.Params("username"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(QueryResponse{Data: txns})
	})
}
