package rental

import (
	"time"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/trip"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/transaction"
)

type UnlockRequest struct {
	QR string `json:"qr"`
}

type PointRequest struct {
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	RecordedAt *time.Time `json:"recordedAt,omitempty"`
}

// EndRequest optionally carries the rider's final position, used as the last
// route point and to pick the return station.
type EndRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// PointEvent is what stream subscribers receive for every recorded point and
// once more, with Status COMPLETED, when the ride ends.
type PointEvent struct {
	TripID     string      `json:"tripId"`
	Latitude   float64     `json:"latitude"`
	Longitude  float64     `json:"longitude"`
	RecordedAt time.Time   `json:"recordedAt"`
	Status     trip.Status `json:"status"`
}

type Receipt struct {
	Trip        trip.Details         `json:"trip"`
	Transaction *transaction.Details `json:"transaction,omitempty"`
}
