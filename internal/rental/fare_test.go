package rental

import (
	"testing"
	"time"
)

func TestFare(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int64
	}{
		{0, 5000},
		{time.Minute, 5000},
		{30 * time.Minute, 5000},
		{30*time.Minute + time.Second, 10000},
		{45 * time.Minute, 10000},
		{2 * time.Hour, 20000},
	}
	for _, tc := range cases {
		if got := Fare(tc.d, 5000); got != tc.want {
			t.Fatalf("fare for %v: expected %d, got %d", tc.d, tc.want, got)
		}
	}
	if Fare(time.Hour, 0) != 0 {
		t.Fatalf("expected free ride when fare is disabled")
	}
}
