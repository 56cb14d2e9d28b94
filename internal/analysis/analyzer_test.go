package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"entrywatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type fakeHistoryFetcher struct {
	history []domain.PricePoint
	err     error
	calls   int
}

func (f *fakeHistoryFetcher) FetchPriceHistory(ctx context.Context, consumerID, vendorID string, currentPrice float64) ([]domain.PricePoint, error) {
	f.calls++
	return f.history, f.err
}

type fakeCandleStore struct {
	calls int
	err   error
}

func (s *fakeCandleStore) UpsertCandles(ctx context.Context, vendorID string, points []domain.PricePoint) error {
	s.calls++
	return s.err
}

func newTestAnalyzer(f *fakeHistoryFetcher, c *fakeCandleStore) (*Analyzer, time.Time) {
	var store CandleStore
	if c != nil {
		store = c
	}
	a := NewAnalyzer(testTracer, f, store)
	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return at }
	return a, at
}

func TestAnalyzeAssetSuccess(t *testing.T) {
	t.Parallel()

	f := &fakeHistoryFetcher{history: trendHistory(60, 100, 1, false)}
	c := &fakeCandleStore{}
	a, at := newTestAnalyzer(f, c)

	asset := &domain.TrackedAsset{VendorID: "bitcoin", Symbol: "BTC", CurrentPrice: 42}
	if err := a.AnalyzeAsset(context.Background(), "test", asset); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if asset.Status != domain.StatusOK {
		t.Fatalf("expected StatusOK, got %v", asset.Status)
	}
	if asset.Indicators == nil {
		t.Fatal("indicators must be attached")
	}
	if asset.Score != asset.Indicators.Quality.Score() {
		t.Fatalf("score must follow quality, got %f", asset.Score)
	}
	if asset.CurrentPrice != 159 {
		t.Fatalf("price must track the last real close, got %f", asset.CurrentPrice)
	}
	if !asset.AnalyzedAt.Equal(at) || !asset.PriceUpdatedAt.Equal(at) {
		t.Fatalf("timestamps not set: %v %v", asset.AnalyzedAt, asset.PriceUpdatedAt)
	}
	if c.calls != 1 {
		t.Fatalf("real candles should be persisted once, got %d", c.calls)
	}
}

func TestAnalyzeAssetSyntheticSkipsPersistenceAndPrice(t *testing.T) {
	t.Parallel()

	f := &fakeHistoryFetcher{history: trendHistory(30, 129, -1, true)}
	c := &fakeCandleStore{}
	a, _ := newTestAnalyzer(f, c)

	asset := &domain.TrackedAsset{VendorID: "bitcoin", Symbol: "BTC", CurrentPrice: 42}
	if err := a.AnalyzeAsset(context.Background(), "test", asset); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.calls != 0 {
		t.Fatal("synthetic bars must not be persisted")
	}
	if asset.CurrentPrice != 42 {
		t.Fatalf("synthetic close must not overwrite the price, got %f", asset.CurrentPrice)
	}
	if asset.Status != domain.StatusOK {
		t.Fatalf("synthetic analysis still succeeds, got %v", asset.Status)
	}
}

func TestAnalyzeAssetFetchCancellation(t *testing.T) {
	t.Parallel()

	f := &fakeHistoryFetcher{err: context.Canceled}
	a, _ := newTestAnalyzer(f, nil)

	asset := &domain.TrackedAsset{VendorID: "bitcoin", Symbol: "BTC", Score: 55}
	if err := a.AnalyzeAsset(context.Background(), "test", asset); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to surface, got %v", err)
	}
	if asset.Score != 55 || asset.Status != domain.StatusNone {
		t.Fatalf("cancelled run must not touch the asset: %+v", asset)
	}
}

func TestAnalyzeAssetInsufficientDataSeedsFromTarget(t *testing.T) {
	t.Parallel()

	f := &fakeHistoryFetcher{history: trendHistory(5, 100, 1, false)}
	a, at := newTestAnalyzer(f, nil)

	asset := &domain.TrackedAsset{VendorID: "bitcoin", Symbol: "BTC", CurrentPrice: 95, EntryTarget: 100}
	if err := a.AnalyzeAsset(context.Background(), "test", asset); err != nil {
		t.Fatalf("per-asset failures must not abort the run: %v", err)
	}

	if asset.Status != domain.StatusError {
		t.Fatalf("expected StatusError, got %v", asset.Status)
	}
	if !almostEqual(asset.Score, 80) || asset.Signal != domain.SignalBuy {
		t.Fatalf("expected target-ratio seed 80/BUY, got %f/%v", asset.Score, asset.Signal)
	}
	if !asset.AnalyzedAt.Equal(at) {
		t.Fatal("failed analysis must still be timestamped")
	}
}

func TestAnalyzeAssetInsufficientDataKeepsPriorScore(t *testing.T) {
	t.Parallel()

	f := &fakeHistoryFetcher{history: trendHistory(5, 100, 1, false)}
	a, _ := newTestAnalyzer(f, nil)

	asset := &domain.TrackedAsset{
		VendorID: "bitcoin", Symbol: "BTC",
		CurrentPrice: 95, EntryTarget: 100,
		Score: 60, Signal: domain.SignalNeutral,
		Indicators: &domain.IndicatorSnapshot{Quality: domain.QualityAverage},
	}
	if err := a.AnalyzeAsset(context.Background(), "test", asset); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if asset.Score != 60 || asset.Signal != domain.SignalNeutral {
		t.Fatalf("prior score must survive a failed recompute, got %f/%v", asset.Score, asset.Signal)
	}
	if asset.Status != domain.StatusError {
		t.Fatalf("expected StatusError, got %v", asset.Status)
	}
}
