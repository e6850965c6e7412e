package trip

import "time"

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
)

// Details is a ride as returned by the query API. Route is an encoded
// polyline, Duration an ISO-8601 duration and Distance is in metres.
type Details struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	BikeID       string     `json:"bikeId"`
	StartStation string     `json:"startStation"`
	EndStation   string     `json:"endStation"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	Duration     string     `json:"duration"`
	Distance     float64    `json:"distance"`
	Route        string     `json:"route"`
	Fee          int64      `json:"fee"`
	Status       Status     `json:"status"`
}

type QueryResponse struct {
	Data []Details `json:"data"`
}
