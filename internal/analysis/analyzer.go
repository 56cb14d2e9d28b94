package analysis

import (
	"context"
	"log"
	"time"

	"entrywatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// HistoryFetcher supplies the daily price history for one asset.
type HistoryFetcher interface {
	FetchPriceHistory(ctx context.Context, consumerID, vendorID string, currentPrice float64) ([]domain.PricePoint, error)
}

// CandleStore persists real (non-synthetic) bars. Optional.
type CandleStore interface {
	UpsertCandles(ctx context.Context, vendorID string, points []domain.PricePoint) error
}

// Analyzer runs the full fetch-compute-score pipeline for one asset at
// a time and writes the outcome back onto the asset.
type Analyzer struct {
	tracer  trace.Tracer
	fetcher HistoryFetcher
	candles CandleStore

	now func() time.Time
}

func NewAnalyzer(tracer trace.Tracer, fetcher HistoryFetcher, candles CandleStore) *Analyzer {
	return &Analyzer{
		tracer:  tracer,
		fetcher: fetcher,
		candles: candles,
		now:     time.Now,
	}
}

// AnalyzeAsset fetches the asset's history, computes indicators, and
// updates the asset's score, signal, and status in place. A returned
// error means the surrounding run should stop (cancellation); per-asset
// analysis failures are recorded on the asset instead.
func (a *Analyzer) AnalyzeAsset(ctx context.Context, consumerID string, asset *domain.TrackedAsset) error {
	ctx, span := a.tracer.Start(ctx, "analysis.analyze-asset")
	defer span.End()

	history, err := a.fetcher.FetchPriceHistory(ctx, consumerID, asset.VendorID, asset.CurrentPrice)
	if err != nil {
		return err
	}

	if a.candles != nil && len(history) > 0 && !history[0].Synthetic {
		if err := a.candles.UpsertCandles(ctx, asset.VendorID, history); err != nil {
			log.Printf("candle persistence for %s failed: %v", asset.VendorID, err)
		}
	}

	now := a.now()
	snap, err := Compute(history)
	if err != nil {
		log.Printf("analysis for %s failed: %v", asset.Symbol, err)
		asset.Status = domain.StatusError
		asset.AnalyzedAt = now
		// keep any previous score; seed from the entry target if the
		// asset has never been scored at all
		if asset.Indicators == nil && asset.Score == 0 && asset.EntryTarget > 0 {
			asset.Score, asset.Signal = TargetRatioScore(asset.CurrentPrice, asset.EntryTarget)
		}
		return nil
	}

	if last := history[len(history)-1]; !last.Synthetic && last.Close > 0 {
		asset.CurrentPrice = last.Close
		asset.PriceUpdatedAt = now
	}

	asset.Indicators = snap
	asset.Score, asset.Signal = TechnicalScore(snap)
	asset.Status = domain.StatusOK
	asset.AnalyzedAt = now
	return nil
}
