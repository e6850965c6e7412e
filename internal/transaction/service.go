package transaction

import (
	"context"
	"errors"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/db"

	"github.com/google/uuid"
)

var ErrInvalidStatus = errors.New("unknown transaction status")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) ListByUser(ctx context.Context, username string) ([]Details, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, username, amount, status, descriptions, created_at
		FROM transactions WHERE username=$1
		ORDER BY created_at DESC
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := []Details{}
	for rows.Next() {
		var d Details
		if err := rows.Scan(&d.ID, &d.Username, &d.Amount, &d.Status, &d.Descriptions, &d.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, d)
	}
	return txns, rows.Err()
}

// Record appends a transaction. An empty status defaults to PENDING.
func (s *Service) Record(ctx context.Context, d Details) (Details, error) {
	switch d.Status {
	case "":
		d.Status = StatusPending
	case StatusSuccess, StatusFailed, StatusPending:
	default:
		return Details{}, ErrInvalidStatus
	}
	d.ID = uuid.NewString()

	row := s.db.QueryRow(ctx, `
		INSERT INTO transactions (id, username, amount, status, descriptions)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, d.ID, d.Username, d.Amount, d.Status, d.Descriptions)
	if err := row.Scan(&d.CreatedAt); err != nil {
		return Details{}, err
	}
	return d, nil
}
