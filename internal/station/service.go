package station

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	DefaultRadiusKm = 2.0
	indexTTL        = time.Minute
)

var (
	ErrNotFound        = errors.New("station not found")
	ErrBikeNotFound    = errors.New("bike not found")
	ErrBikeUnavailable = errors.New("bike is not available")
)

var nowFn = time.Now

type Service struct {
	db db.Querier

	mu      sync.Mutex
	index   *Index
	builtAt time.Time
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// List returns every station with its bikes, ordered by name.
func (s *Service) List(ctx context.Context) ([]Station, error) {
	return s.queryStations(ctx, `
		SELECT id, name, address, lat, lng
		FROM stations
		ORDER BY name
	`)
}

// Search matches name or address case-insensitively. An empty query lists all stations.
func (s *Service) Search(ctx context.Context, q string) ([]Station, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return s.List(ctx)
	}
	return s.queryStations(ctx, `
		SELECT id, name, address, lat, lng
		FROM stations
		WHERE name ILIKE $1 OR address ILIKE $1
		ORDER BY name
	`, "%"+escapeLike(q)+"%")
}

func (s *Service) Get(ctx context.Context, id string) (Station, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Station{}, ErrNotFound
	}
	var st Station
	err := s.db.QueryRow(ctx, `
		SELECT id, name, address, lat, lng
		FROM stations WHERE id=$1
	`, id).Scan(&st.ID, &st.Name, &st.Address, &st.Coordinates.Lat, &st.Coordinates.Lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return Station{}, ErrNotFound
	}
	if err != nil {
		return Station{}, err
	}

	stations := []Station{st}
	if err := s.attachBikes(ctx, stations); err != nil {
		return Station{}, err
	}
	return stations[0], nil
}

// Nearby answers from an in-memory rtree of all stations, rebuilt at most once a minute.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]Station, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	idx, err := s.currentIndex(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Within(lat, lng, radiusKm), nil
}

// Warm loads the nearby index before the first rider asks for it and returns
// how many stations it holds.
func (s *Service) Warm(ctx context.Context) (int, error) {
	idx, err := s.currentIndex(ctx)
	if err != nil {
		return 0, err
	}
	return idx.Len(), nil
}

// Invalidate forces the next Nearby call to reload stations.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.index = nil
	s.mu.Unlock()
}

func (s *Service) Clusters(ctx context.Context, zoom float64) ([]Cluster, error) {
	stations, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return ClusterStations(stations, zoom), nil
}

// BikeDock reports where a bike is docked and its status. StationID and
// StationName are empty for undocked bikes.
func (s *Service) BikeDock(ctx context.Context, bikeID string) (Dock, error) {
	var d Dock
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(b.station_id::text, ''), COALESCE(s.name, ''), b.status
		FROM bikes b LEFT JOIN stations s ON s.id = b.station_id
		WHERE b.id=$1
	`, bikeID).Scan(&d.StationID, &d.StationName, &d.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Dock{}, ErrBikeNotFound
	}
	if err != nil {
		return Dock{}, err
	}
	d.BikeID = bikeID
	return d, nil
}

// Checkout moves an AVAILABLE bike to IN_USE and undocks it.
func (s *Service) Checkout(ctx context.Context, bikeID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE bikes SET status=$2, station_id=NULL
		WHERE id=$1 AND status=$3
	`, bikeID, BikeInUse, BikeAvailable)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBikeUnavailable
	}
	s.Invalidate()
	return nil
}

// Release marks the bike AVAILABLE at stationID, or undocked when stationID is empty.
func (s *Service) Release(ctx context.Context, bikeID, stationID string) error {
	if err := ReleaseIn(ctx, s.db, bikeID, stationID); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// ReleaseIn is Release run through q, typically an open transaction. The
// caller invalidates the nearby index once the change is committed.
func ReleaseIn(ctx context.Context, q db.Querier, bikeID, stationID string) error {
	tag, err := q.Exec(ctx, `
		UPDATE bikes SET status=$2, station_id=NULLIF($3, '')::uuid
		WHERE id=$1
	`, bikeID, BikeAvailable, stationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBikeNotFound
	}
	return nil
}

// Nearest returns the closest station within DefaultRadiusKm of the point.
func (s *Service) Nearest(ctx context.Context, lat, lng float64) (Station, bool, error) {
	near, err := s.Nearby(ctx, lat, lng, DefaultRadiusKm)
	if err != nil || len(near) == 0 {
		return Station{}, false, err
	}
	return near[0], true, nil
}

func (s *Service) currentIndex(ctx context.Context) (*Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil && nowFn().Sub(s.builtAt) < indexTTL {
		return s.index, nil
	}
	stations, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	s.index = NewIndex(stations)
	s.builtAt = nowFn()
	return s.index, nil
}

func (s *Service) queryStations(ctx context.Context, sql string, args ...any) ([]Station, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := []Station{}
	for rows.Next() {
		var st Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Address, &st.Coordinates.Lat, &st.Coordinates.Lng); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(stations) == 0 {
		return stations, nil
	}
	if err := s.attachBikes(ctx, stations); err != nil {
		return nil, err
	}
	return stations, nil
}

func (s *Service) attachBikes(ctx context.Context, stations []Station) error {
	ids := make([]string, len(stations))
	pos := make(map[string]int, len(stations))
	for i, st := range stations {
		ids[i] = st.ID
		pos[st.ID] = i
		stations[i].BikeList = []Bike{}
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, plate, station_id, status, battery
		FROM bikes WHERE station_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var b Bike
		var stationID string
		if err := rows.Scan(&b.ID, &b.Plate, &stationID, &b.Status, &b.Battery); err != nil {
			return err
		}
		if i, ok := pos[stationID]; ok {
			stations[i].BikeList = append(stations[i].BikeList, b)
		}
	}
	return rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
