// Package fetcher is the market-data access layer shared by every
// consumer. It reads through the response cache, asks the coordinator
// for permission before touching the network, retries with exponential
// backoff on upstream trouble, and degrades to cached or synthetic data
// rather than failing.
package fetcher

import (
	"context"
	"log"
	"sync"
	"time"

	"entrywatch/internal/cache"
	"entrywatch/internal/domain"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type MarketDataProvider interface {
	FetchSpotPrices(ctx context.Context, ids []string) (map[string]float64, error)
	FetchOHLC(ctx context.Context, id string, days int) ([]domain.PricePoint, error)
}

type Gatekeeper interface {
	RequestAPICall(consumerID, purpose string) bool
	CanMakeAPICall(consumerID, purpose string) bool
}

// RedisClient is the subset of go-redis used for the best-effort
// cross-process price mirror.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

const (
	defaultHistoryDays = 30
	defaultMaxAttempts = 3
	defaultBackoffBase = 5 * time.Second
	defaultBackoffCap  = 60 * time.Second
	priceMirrorTTL     = 90 * time.Second
)

type Fetcher struct {
	tracer   trace.Tracer
	provider MarketDataProvider
	gate     Gatekeeper
	store    *cache.Store
	redis    RedisClient

	historyDays int
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration

	// lastGood keeps the most recent successful history per asset so a
	// permission denial can serve stale-but-real data after the cache
	// entry itself has expired.
	mu       sync.Mutex
	lastGood map[string][]domain.PricePoint

	sleep func(ctx context.Context, d time.Duration) error
}

func New(tracer trace.Tracer, provider MarketDataProvider, gate Gatekeeper, store *cache.Store, redisClient RedisClient) *Fetcher {
	return &Fetcher{
		tracer:      tracer,
		provider:    provider,
		gate:        gate,
		store:       store,
		redis:       redisClient,
		historyDays: defaultHistoryDays,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		backoffCap:  defaultBackoffCap,
		lastGood:    make(map[string][]domain.PricePoint),
		sleep:       sleepCtx,
	}
}

// SetHistoryDays overrides how many days of OHLC history each upstream
// fetch requests. Non-positive values are ignored.
func (f *Fetcher) SetHistoryDays(days int) {
	if days > 0 {
		f.historyDays = days
	}
}

// FetchPriceHistory returns a daily OHLCV history for one asset. It
// only fails on context cancellation; every upstream failure mode ends
// in cached or synthetic data.
func (f *Fetcher) FetchPriceHistory(ctx context.Context, consumerID, vendorID string, currentPrice float64) ([]domain.PricePoint, error) {
	ctx, span := f.tracer.Start(ctx, "fetcher.fetch-price-history")
	defer span.End()

	if v, ok := f.store.Get(cache.KindOHLC, vendorID); ok {
		return v.([]domain.PricePoint), nil
	}

	if !f.gate.RequestAPICall(consumerID, "ohlc-history") {
		if stale := f.staleHistory(vendorID); stale != nil {
			log.Printf("history fetch denied for %s, serving stale data", vendorID)
			return stale, nil
		}
		log.Printf("history fetch denied for %s, synthesizing fallback", vendorID)
		return SyntheticHistory(vendorID, currentPrice, FallbackPoints), nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.backoffBase
	policy.RandomizationFactor = 0
	policy.Multiplier = 2
	policy.MaxInterval = f.backoffCap

	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		points, err := f.provider.FetchOHLC(ctx, vendorID, f.historyDays)
		if err == nil {
			points = fillVolumes(points, currentPrice)
			f.store.Put(cache.KindOHLC, vendorID, points, 0)
			f.setStale(vendorID, points)
			return points, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !domain.IsRetryable(err) {
			log.Printf("history fetch for %s failed: %v", vendorID, err)
			break
		}

		wait := policy.NextBackOff()
		log.Printf("history fetch for %s failed (attempt %d): %v, backing off %s", vendorID, attempt+1, err, wait)
		if err := f.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	log.Printf("history retries exhausted for %s, synthesizing fallback", vendorID)
	return SyntheticHistory(vendorID, currentPrice, FallbackPoints), nil
}

// FetchBulkPrices returns current prices for the given vendor ids.
// Fresh cache entries are served directly; at most one coordinated
// upstream call covers the rest. On denial or rate limiting the cached
// subset is returned unchanged, stale-but-safe.
func (f *Fetcher) FetchBulkPrices(ctx context.Context, consumerID string, ids []string) map[string]float64 {
	ctx, span := f.tracer.Start(ctx, "fetcher.fetch-bulk-prices")
	defer span.End()

	out := make(map[string]float64, len(ids))
	var missing []string
	for _, id := range ids {
		if v, ok := f.store.Get(cache.KindPrice, id); ok {
			out[id] = v.(float64)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out
	}

	if !f.gate.RequestAPICall(consumerID, "bulk-prices") {
		log.Printf("bulk price call denied for %s, serving %d cached entries", consumerID, len(out))
		return out
	}

	prices, err := f.provider.FetchSpotPrices(ctx, missing)
	if err != nil {
		if domain.IsRateLimited(err) {
			log.Printf("bulk price call rate limited, keeping stale cache")
		} else {
			log.Printf("bulk price call failed: %v", err)
		}
		return out
	}

	for id, price := range prices {
		out[id] = price
		f.store.Put(cache.KindPrice, id, price, 0)
		f.mirrorPrice(ctx, id, price)
	}
	return out
}

func (f *Fetcher) staleHistory(vendorID string) []domain.PricePoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastGood[vendorID]
}

func (f *Fetcher) setStale(vendorID string, points []domain.PricePoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastGood[vendorID] = points
}

func (f *Fetcher) mirrorPrice(ctx context.Context, id string, price float64) {
	if f.redis == nil {
		return
	}
	if err := f.redis.Set(ctx, "price:"+id, price, priceMirrorTTL).Err(); err != nil {
		log.Printf("redis price mirror write error for %s: %v", id, err)
	}
}

// fillVolumes substitutes a price-proportional estimate for bars the
// upstream OHLC endpoint returned without volume.
func fillVolumes(points []domain.PricePoint, currentPrice float64) []domain.PricePoint {
	for i := range points {
		if points[i].Volume == 0 {
			points[i].Volume = estimateVolume(points[i].Close, currentPrice)
		}
	}
	return points
}

func estimateVolume(closePrice, currentPrice float64) float64 {
	base := closePrice
	if base <= 0 {
		base = currentPrice
	}
	return base * 40000
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
