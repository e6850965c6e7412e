package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

var errDB = errors.New("db down")

var txnColumns = []string{"id", "username", "amount", "status", "descriptions", "created_at"}

func TestListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM transactions WHERE username=\$1`).
		WithArgs("0912345678").
		WillReturnRows(pgxmock.NewRows(txnColumns).
			AddRow("t-2", "0912345678", int64(-5000), StatusSuccess, "Thanh toán chuyến đi trip-1", now).
			AddRow("t-1", "0912345678", int64(100000), StatusSuccess, "Nạp tiền", now.Add(-time.Hour)))

	txns, err := NewService(mock).ListByUser(context.Background(), "0912345678")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 2 || txns[0].Amount != -5000 || txns[1].Status != StatusSuccess {
		t.Fatalf("unexpected transactions: %+v", txns)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListByUserError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`FROM transactions`).WillReturnError(errors.New("db down"))
	if _, err := NewService(mock).ListByUser(context.Background(), "u"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRecord(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO transactions`).
		WithArgs(pgxmock.AnyArg(), "0912345678", int64(-10000), StatusSuccess, "Thanh toán chuyến đi trip-1").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectQuery(`INSERT INTO transactions`).
		WithArgs(pgxmock.AnyArg(), "0912345678", int64(50000), StatusPending, "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	svc := NewService(mock)
	d, err := svc.Record(context.Background(), Details{
		Username:     "0912345678",
		Amount:       -10000,
		Status:       StatusSuccess,
		Descriptions: "Thanh toán chuyến đi trip-1",
	})
	if err != nil || d.ID == "" || !d.CreatedAt.Equal(now) {
		t.Fatalf("record: %+v %v", d, err)
	}

	d, err = svc.Record(context.Background(), Details{Username: "0912345678", Amount: 50000})
	if err != nil || d.Status != StatusPending {
		t.Fatalf("expected pending default: %+v %v", d, err)
	}

	if _, err := svc.Record(context.Background(), Details{Status: "REFUNDED"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
