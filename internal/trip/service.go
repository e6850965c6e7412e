package trip

import (
	"context"
	"errors"
	"time"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound     = errors.New("trip not found")
	ErrNotActive    = errors.New("trip is not active")
	ErrActiveExists = errors.New("user already has an active trip")
)

const uniqueViolationCode = "23505"

const selectColumns = `id, username, bike_id, start_station, end_station, start_time, end_time, duration, distance_m, route, fee, status`

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// ListByUser returns the user's trips, newest first. The result is never nil.
func (s *Service) ListByUser(ctx context.Context, username string) ([]Details, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+selectColumns+`
		FROM trips WHERE username=$1
		ORDER BY start_time DESC
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []Details{}
	for rows.Next() {
		d, err := scanDetails(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, d)
	}
	return trips, rows.Err()
}

// Get returns one of the user's trips.
func (s *Service) Get(ctx context.Context, username, id string) (Details, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Details{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `
		SELECT `+selectColumns+`
		FROM trips WHERE id=$1 AND username=$2
	`, id, username)
	return notFound(scanDetails(row))
}

// Start opens an ACTIVE trip for the bike. The trips_one_active_per_user
// index turns a concurrent second start into ErrActiveExists.
func (s *Service) Start(ctx context.Context, username, bikeID, startStation string) (Details, error) {
	d := Details{
		ID:           uuid.NewString(),
		Username:     username,
		BikeID:       bikeID,
		StartStation: startStation,
		Status:       StatusActive,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO trips (id, username, bike_id, start_station, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING start_time
	`, d.ID, d.Username, d.BikeID, d.StartStation, d.Status)
	if err := row.Scan(&d.StartTime); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return Details{}, ErrActiveExists
		}
		return Details{}, err
	}
	return d, nil
}

// Active returns the user's trip only while it is still ACTIVE.
func (s *Service) Active(ctx context.Context, username, id string) (Details, error) {
	d, err := s.Get(ctx, username, id)
	if err != nil {
		return Details{}, err
	}
	if d.Status != StatusActive {
		return Details{}, ErrNotActive
	}
	return d, nil
}

// HasActive reports whether the user already has a ride in progress.
func (s *Service) HasActive(ctx context.Context, username string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM trips WHERE username=$1 AND status=$2)
	`, username, StatusActive).Scan(&ok)
	return ok, err
}

// Complete stores the closing fields of an active trip and marks it COMPLETED.
func (s *Service) Complete(ctx context.Context, d Details) (Details, error) {
	if d.EndTime == nil {
		now := time.Now()
		d.EndTime = &now
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE trips
		SET end_station=$2, end_time=$3, duration=$4, distance_m=$5, route=$6, fee=$7, status=$8
		WHERE id=$1 AND status=$9
	`, d.ID, d.EndStation, *d.EndTime, d.Duration, d.Distance, d.Route, d.Fee, StatusCompleted, StatusActive)
	if err != nil {
		return Details{}, err
	}
	if tag.RowsAffected() == 0 {
		return Details{}, ErrNotActive
	}
	d.Status = StatusCompleted
	return d, nil
}

func scanDetails(row pgx.Row) (Details, error) {
	var d Details
	err := row.Scan(&d.ID, &d.Username, &d.BikeID, &d.StartStation, &d.EndStation, &d.StartTime, &d.EndTime,
		&d.Duration, &d.Distance, &d.Route, &d.Fee, &d.Status)
	return d, err
}

func notFound(d Details, err error) (Details, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return Details{}, ErrNotFound
	}
	return d, err
}
