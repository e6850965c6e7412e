// Package history turns transaction and trip records into display rows for
// the rider's history screens.
package history

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/shared/geo"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/shared/timefmt"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/transaction"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/trip"
)

const (
	LabelSuccess = "Thành công"
	LabelFailed  = "Thất bại"
	LabelPending = "Đang xử lý"
)

// Source is the part of the API client the views read from.
type Source interface {
	Transactions(ctx context.Context, username string) ([]transaction.Details, error)
	Trips(ctx context.Context, username string) ([]trip.Details, error)
}

type TransactionItem struct {
	Description string `json:"description" yaml:"description"`
	StatusLabel string `json:"statusLabel" yaml:"statusLabel"`
	Amount      string `json:"amount" yaml:"amount"`
	Timestamp   string `json:"timestamp" yaml:"timestamp"`
	Positive    bool   `json:"positive" yaml:"positive"`
}

type TripItem struct {
	ID         string `json:"id" yaml:"id"`
	TimeRange  string `json:"timeRange" yaml:"timeRange"`
	Duration   string `json:"duration" yaml:"duration"`
	DistanceKm string `json:"distanceKm" yaml:"distanceKm"`
	PathJSON   string `json:"pathJson" yaml:"pathJson"`
}

type Transactions struct {
	src      Source
	username string
	loc      *time.Location
}

func NewTransactions(src Source, username string, loc *time.Location) *Transactions {
	if loc == nil {
		loc = timefmt.VietnamZone
	}
	return &Transactions{src: src, username: username, loc: loc}
}

// Load fetches the user's transactions once and renders one item per record.
func (v *Transactions) Load(ctx context.Context) ([]TransactionItem, error) {
	records, err := v.src.Transactions(ctx, v.username)
	if err != nil {
		return nil, err
	}
	items := make([]TransactionItem, 0, len(records))
	for _, r := range records {
		items = append(items, TransactionItem{
			Description: r.Descriptions,
			StatusLabel: StatusLabel(r.Status),
			Amount:      timefmt.Amount(r.Amount),
			Timestamp:   timefmt.Timestamp(r.CreatedAt, v.loc),
			Positive:    r.Amount > 0,
		})
	}
	return items, nil
}

func StatusLabel(s transaction.Status) string {
	switch s {
	case transaction.StatusSuccess:
		return LabelSuccess
	case transaction.StatusFailed:
		return LabelFailed
	default:
		return LabelPending
	}
}

type Trips struct {
	src      Source
	username string
	loc      *time.Location
}

func NewTrips(src Source, username string, loc *time.Location) *Trips {
	if loc == nil {
		loc = timefmt.VietnamZone
	}
	return &Trips{src: src, username: username, loc: loc}
}

// Load fetches the user's trips once. Fields that cannot be rendered (an
// active trip has no end time, a corrupt route cannot be decoded) are left
// empty rather than dropping the row.
func (v *Trips) Load(ctx context.Context) ([]TripItem, error) {
	records, err := v.src.Trips(ctx, v.username)
	if err != nil {
		return nil, err
	}
	items := make([]TripItem, 0, len(records))
	for _, r := range records {
		items = append(items, v.item(r))
	}
	return items, nil
}

func (v *Trips) item(r trip.Details) TripItem {
	item := TripItem{
		ID:         r.ID,
		DistanceKm: fmt.Sprintf("%.2f km", r.Distance/1000),
		PathJSON:   "[]",
	}
	if r.EndTime != nil {
		item.TimeRange = timefmt.TripWindow(r.StartTime, *r.EndTime, v.loc)
	} else {
		item.TimeRange = timefmt.Timestamp(r.StartTime, v.loc)
	}
	if r.Duration != "" {
		if d, err := timefmt.FormatDuration(r.Duration); err == nil {
			item.Duration = d
		} else {
			log.Printf("history: trip %s duration: %v", r.ID, err)
		}
	}
	if r.Route != "" {
		if path, err := geo.PolylineJSON(r.Route); err == nil {
			item.PathJSON = path
		} else {
			log.Printf("history: trip %s route: %v", r.ID, err)
		}
	}
	return item
}
