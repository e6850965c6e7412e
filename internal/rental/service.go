package rental

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/db"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/qrcode"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/shared/geo"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/shared/timefmt"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/station"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/stream"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/trip"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/transaction"
)

// InvalidQRMessage is shown to riders when a scanned code is not a bike code.
const InvalidQRMessage = "Mã QR không hợp lệ"

var (
	ErrInvalidQR      = errors.New("invalid bike qr code")
	ErrInvalidPoint   = errors.New("latitude or longitude out of range")
	ErrRideInProgress = errors.New("a ride is already in progress")
)

var nowFn = time.Now

type Service struct {
	db           db.Querier
	trips        *trip.Service
	stations     *station.Service
	hub          *stream.Hub
	qr           qrcode.Validator
	farePerBlock int64
}

func NewService(db db.Querier, stations *station.Service, hub *stream.Hub, qr qrcode.Validator, farePerBlock int64) *Service {
	return &Service{
		db:           db,
		trips:        trip.NewService(db),
		stations:     stations,
		hub:          hub,
		qr:           qr,
		farePerBlock: farePerBlock,
	}
}

// Unlock validates the scanned QR payload, claims the bike and opens a trip.
func (s *Service) Unlock(ctx context.Context, username, payload string) (trip.Details, error) {
	bikeID, ok := s.qr.BikeID(payload)
	if !ok {
		return trip.Details{}, ErrInvalidQR
	}

	active, err := s.trips.HasActive(ctx, username)
	if err != nil {
		return trip.Details{}, err
	}
	if active {
		return trip.Details{}, ErrRideInProgress
	}

	dock, err := s.stations.BikeDock(ctx, bikeID)
	if err != nil {
		return trip.Details{}, err
	}
	if dock.Status != station.BikeAvailable {
		return trip.Details{}, station.ErrBikeUnavailable
	}
	if err := s.stations.Checkout(ctx, bikeID); err != nil {
		return trip.Details{}, err
	}

	started, err := s.trips.Start(ctx, username, bikeID, dock.StationName)
	if err != nil {
		if rerr := s.stations.Release(ctx, bikeID, dock.StationID); rerr != nil {
			log.Printf("rental: release %s after failed start: %v", bikeID, rerr)
		}
		if errors.Is(err, trip.ErrActiveExists) {
			return trip.Details{}, ErrRideInProgress
		}
		return trip.Details{}, err
	}
	return started, nil
}

// AddPoint records a GPS fix for an active trip and pushes it to live viewers.
func (s *Service) AddPoint(ctx context.Context, username, tripID string, req PointRequest) (PointEvent, error) {
	p := geo.Point{Latitude: req.Latitude, Longitude: req.Longitude}
	if !p.Valid() {
		return PointEvent{}, ErrInvalidPoint
	}
	if _, err := s.trips.Active(ctx, username, tripID); err != nil {
		return PointEvent{}, err
	}

	recordedAt := nowFn()
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}
	if _, err := s.db.Exec(ctx, `
		INSERT INTO trip_points (trip_id, lat, lng, recorded_at)
		VALUES ($1,$2,$3,$4)
	`, tripID, p.Latitude, p.Longitude, recordedAt); err != nil {
		return PointEvent{}, err
	}

	event := PointEvent{
		TripID:     tripID,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		RecordedAt: recordedAt,
		Status:     trip.StatusActive,
	}
	s.broadcast(event)
	return event, nil
}

// End closes an active trip: the recorded path becomes an encoded polyline,
// the bike is docked at the nearest station and the fare is charged. Closing,
// docking and charging commit together or not at all.
func (s *Service) End(ctx context.Context, username, tripID string, req EndRequest) (Receipt, error) {
	current, err := s.trips.Active(ctx, username, tripID)
	if err != nil {
		return Receipt{}, err
	}

	points, err := s.points(ctx, tripID)
	if err != nil {
		return Receipt{}, err
	}
	if req.Latitude != nil && req.Longitude != nil {
		last := geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
		if !last.Valid() {
			return Receipt{}, ErrInvalidPoint
		}
		points = append(points, last)
	}

	end := nowFn()
	elapsed := end.Sub(current.StartTime).Truncate(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	current.EndTime = &end
	current.Duration = timefmt.ISODuration(elapsed)
	current.Distance = geo.PathLengthM(points)
	current.Route = geo.EncodePolyline(points)
	current.Fee = Fare(elapsed, s.farePerBlock)

	dockID := ""
	if len(points) > 0 {
		last := points[len(points)-1]
		nearest, ok, err := s.stations.Nearest(ctx, last.Latitude, last.Longitude)
		if err != nil {
			log.Printf("rental: nearest station for %s: %v", tripID, err)
		} else if ok {
			dockID = nearest.ID
			current.EndStation = nearest.Name
		}
	}

	receipt, err := s.settle(ctx, current, dockID)
	if err != nil {
		return Receipt{}, err
	}

	final := PointEvent{TripID: tripID, RecordedAt: end, Status: trip.StatusCompleted}
	if len(points) > 0 {
		final.Latitude = points[len(points)-1].Latitude
		final.Longitude = points[len(points)-1].Longitude
	}
	s.broadcast(final)
	return receipt, nil
}

// settle completes the trip, docks the bike and records the fare in one
// transaction.
func (s *Service) settle(ctx context.Context, current trip.Details, dockID string) (Receipt, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Receipt{}, err
	}
	receipt, err := settleIn(ctx, tx, current, dockID)
	if err != nil {
		if rerr := tx.Rollback(ctx); rerr != nil {
			log.Printf("rental: rollback end of %s: %v", current.ID, rerr)
		}
		return Receipt{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Receipt{}, err
	}
	s.stations.Invalidate()
	return receipt, nil
}

func settleIn(ctx context.Context, tx db.Querier, current trip.Details, dockID string) (Receipt, error) {
	completed, err := trip.NewService(tx).Complete(ctx, current)
	if err != nil {
		return Receipt{}, err
	}
	if err := station.ReleaseIn(ctx, tx, current.BikeID, dockID); err != nil {
		return Receipt{}, err
	}
	receipt := Receipt{Trip: completed}

	if completed.Fee > 0 {
		charge, err := transaction.NewService(tx).Record(ctx, transaction.Details{
			Username:     completed.Username,
			Amount:       -completed.Fee,
			Status:       transaction.StatusSuccess,
			Descriptions: "Thanh toán chuyến đi " + completed.ID,
		})
		if err != nil {
			return Receipt{}, err
		}
		receipt.Transaction = &charge
	}
	return receipt, nil
}

func (s *Service) points(ctx context.Context, tripID string) ([]geo.Point, error) {
	rows, err := s.db.Query(ctx, `
		SELECT lat, lng FROM trip_points
		WHERE trip_id=$1
		ORDER BY recorded_at, id
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []geo.Point
	for rows.Next() {
		var p geo.Point
		if err := rows.Scan(&p.Latitude, &p.Longitude); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *Service) broadcast(event PointEvent) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastJSON(event.TripID, event); err != nil {
		log.Printf("rental: broadcast %s: %v", event.TripID, err)
	}
}
