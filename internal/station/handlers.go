package station

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/", func(c *fiber.Ctx) error {
		if c.Query("lat") == "" && c.Query("lng") == "" {
			stations, err := svc.List(c.Context())
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			return c.JSON(QueryResponse{Data: stations})
		}

		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng must be valid coordinates")
		}
		radius := DefaultRadiusKm
		if raw := c.Query("radius"); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil || parsed <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "radius must be a positive number of km")
			}
			radius = parsed
		}
		stations, err := svc.Nearby(c.Context(), lat, lng, radius)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(QueryResponse{Data: stations})
	})

	r.Get("/search", func(c *fiber.Ctx) error {
		stations, err := svc.Search(c.Context(), c.Query("q"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(QueryResponse{Data: stations})
	})

	r.Get("/clusters", func(c *fiber.Ctx) error {
		zoom, err := strconv.ParseFloat(c.Query("zoom", "12"), 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "zoom must be a number")
		}
		clusters, err := svc.Clusters(c.Context(), zoom)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"data": clusters})
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		st, err := svc.Get(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(st)
	})

	r.Get("/:id/directions", func(c *fiber.Ctx) error {
		st, err := svc.Get(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"url": DirectionsURL(st.Coordinates.Lat, st.Coordinates.Lng)})
	})
}
