package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MAWatch/internal/model"
)

const yahooBody = `{"chart":{"result":[{"timestamp":[1700179200,1700006400,1700092800,1700265600],
"indicators":{"quote":[{"open":[12,10,11,null],"high":[12.5,10.5,11.5,null],"low":[11.5,9.5,10.5,null],
"close":[12.2,10.2,11.2,null],"volume":[300,100,200,null]}]}}],"error":null}}`

func newYahoo(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := NewYahooFetcher("")
	f.BaseURL = srv.URL + "/"
	return f
}

func TestYahooFetcher_ParsesAndSorts(t *testing.T) {
	var gotPath, gotInterval string
	f := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		w.Write([]byte(yahooBody))
	})

	series, err := f.FetchDailyBars(context.Background(), "SPX", time.Now().AddDate(-3, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/^GSPC" {
		t.Errorf("expected mapped ticker in path, got %q", gotPath)
	}
	if gotInterval != "1d" {
		t.Errorf("expected daily interval, got %q", gotInterval)
	}
	if series.Len() != 3 {
		t.Fatalf("expected 3 bars (null bar skipped), got %d", series.Len())
	}
	for i := 1; i < series.Len(); i++ {
		if !series.Bars[i-1].Time.Before(series.Bars[i].Time) {
			t.Fatalf("bars not strictly increasing at %d", i)
		}
	}
	if series.Last().Close != 12.2 {
		t.Errorf("last close: got %f, want 12.2", series.Last().Close)
	}
}

func TestYahooFetcher_NotFoundIsEmpty(t *testing.T) {
	f := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})
	series, err := f.FetchDailyBars(context.Background(), "ZZZZ", time.Now())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !series.Empty() {
		t.Errorf("expected empty series, got %d bars", series.Len())
	}
}

func TestYahooFetcher_ServerError(t *testing.T) {
	f := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := f.FetchDailyBars(context.Background(), "AAPL", time.Now())
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing auth header")
		}
		if r.URL.Query().Get("symbol") != "ASML" {
			t.Errorf("unexpected symbol %q", r.URL.Query().Get("symbol"))
		}
		w.Write([]byte(`[{"timestamp":1700092800,"open":2,"high":3,"low":1,"close":2.5,"volume":9},
			{"timestamp":1700006400,"open":1,"high":2,"low":0.5,"close":1.5,"volume":8}]`))
	}))
	defer srv.Close()

	series, err := NewRESTFetcher(srv.URL, "key", "").FetchDailyBars(context.Background(), "ASML", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 2 || series.Bars[0].Close != 1.5 {
		t.Fatalf("unexpected bars: %+v", series.Bars)
	}
}

func TestNormalize(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	bars := []model.OHLCV{
		{Time: day(3), Open: 3, High: 3, Low: 3, Close: 3},
		{Time: day(1), Open: 1, High: 1, Low: 1, Close: 1},
		{Time: day(3), Open: 4, High: 4, Low: 4, Close: 4},
		{Time: day(2), Open: 0, High: 0, Low: 0, Close: 0},
	}
	got := Normalize(bars)
	if len(got) != 2 {
		t.Fatalf("expected 2 bars, got %d: %+v", len(got), got)
	}
	if got[0].Close != 1 || got[1].Close != 4 {
		t.Errorf("expected closes [1 4], got [%v %v]", got[0].Close, got[1].Close)
	}
}

func TestCollector_EmptyIsErrNoData(t *testing.T) {
	col := NewCollector(&StaticFetcher{}, 3)
	_, err := col.Collect(context.Background(), "NONE")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestCollector_LookbackWindow(t *testing.T) {
	now := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	fetcher := &StaticFetcher{Series: map[string][]model.OHLCV{
		"AMZN": {
			{Time: now.AddDate(-4, 0, 0), Open: 1, High: 1, Low: 1, Close: 1},
			{Time: now.AddDate(-2, 0, 0), Open: 2, High: 2, Low: 2, Close: 2},
			{Time: now, Open: 3, High: 3, Low: 3, Close: 3},
		},
	}}
	col := NewCollector(fetcher, 3)
	col.Now = func() time.Time { return now }
	series, err := col.Collect(context.Background(), "AMZN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 2 {
		t.Errorf("expected 2 bars inside 3y lookback, got %d", series.Len())
	}
}
