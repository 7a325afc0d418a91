package collector

import (
	"context"
	"time"

	"MAWatch/internal/model"
)

// Fetcher defines the interface for fetching daily price history.
// A symbol without data yields an empty series, not an error.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, since time.Time) (*model.PriceSeries, error)
	Name() string
}
