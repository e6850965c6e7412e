package rental

import (
	"math"
	"time"
)

const fareBlock = 30 * time.Minute

// Fare charges perBlock for every started 30 minute block, at least one.
func Fare(d time.Duration, perBlock int64) int64 {
	if perBlock <= 0 {
		return 0
	}
	blocks := int64(math.Ceil(float64(d) / float64(fareBlock)))
	if blocks < 1 {
		blocks = 1
	}
	return blocks * perBlock
}
