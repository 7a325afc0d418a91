package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"MAWatch/internal/model"
)

// ErrNoData is returned when the source has no bars for a symbol.
var ErrNoData = errors.New("no price data")

// DefaultLookbackYears is how much daily history is requested per symbol.
const DefaultLookbackYears = 3

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// Normalize sorts bars by time, keeps the last bar of a duplicated timestamp
// and drops bars without a positive OHLC (holidays, half-filled rows).
func Normalize(bars []model.OHLCV) []model.OHLCV {
	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			continue
		}
		if b.Volume < 0 {
			b.Volume = 0
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	dedup := out[:0]
	for _, b := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Time.Equal(b.Time) {
			dedup[n-1] = b
			continue
		}
		dedup = append(dedup, b)
	}
	return dedup
}

// StaticFetcher serves fixed series for development and testing.
type StaticFetcher struct {
	Series map[string][]model.OHLCV
	Errors map[string]error
}

func (s *StaticFetcher) Name() string { return "static" }

func (s *StaticFetcher) FetchDailyBars(_ context.Context, symbol string, since time.Time) (*model.PriceSeries, error) {
	if err, ok := s.Errors[symbol]; ok {
		return nil, err
	}
	var bars []model.OHLCV
	for _, b := range s.Series[symbol] {
		if !b.Time.Before(since) {
			bars = append(bars, b)
		}
	}
	return &model.PriceSeries{Symbol: symbol, Bars: Normalize(bars), FetchedAt: time.Now()}, nil
}

// Collector fetches the configured lookback of daily history for a symbol.
type Collector struct {
	Fetcher       Fetcher
	LookbackYears int
	Now           func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookbackYears int) *Collector {
	if lookbackYears <= 0 {
		lookbackYears = DefaultLookbackYears
	}
	return &Collector{Fetcher: fetcher, LookbackYears: lookbackYears, Now: time.Now}
}

// Collect returns the symbol's daily series. An empty result is reported as ErrNoData.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	since := c.Now().AddDate(-c.LookbackYears, 0, 0)
	series, err := c.Fetcher.FetchDailyBars(ctx, symbol, since)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", symbol, c.Fetcher.Name(), err)
	}
	if series.Empty() {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return series, nil
}
