package ports

import (
	"context"
	"time"
)

// Contract for the external traffic-aware travel time predictor.
type DurationOracle interface {
	// Return the predicted drive duration in minutes for departing at departAt.
	Duration(ctx context.Context, origin string, destination string, departAt time.Time) (float64, error)
}
