package transaction

import "time"

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusPending Status = "PENDING"
)

// Details is one wallet movement. Amount is in VND: positive for top-ups,
// negative for charges.
type Details struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Amount       int64     `json:"amount"`
	Status       Status    `json:"status"`
	Descriptions string    `json:"descriptions"`
	CreatedAt    time.Time `json:"createdAt"`
}

type QueryResponse struct {
	Data []Details `json:"data"`
}
