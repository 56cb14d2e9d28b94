package fetcher

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"entrywatch/internal/domain"
)

// FallbackPoints is the length of a synthesized daily history.
const FallbackPoints = 30

// maxDailyMove bounds the synthetic day-over-day return.
const maxDailyMove = 0.03

// SyntheticHistory generates a plausible daily OHLCV series when real
// data cannot be obtained. The shape is deterministic per vendor id,
// the final close equals currentPrice exactly, and every bar is tagged
// Synthetic so downstream consumers can discount confidence.
func SyntheticHistory(vendorID string, currentPrice float64, points int) []domain.PricePoint {
	if points <= 0 {
		points = FallbackPoints
	}

	h := fnv.New64a()
	h.Write([]byte(vendorID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	closes := make([]float64, points)
	closes[points-1] = currentPrice
	for i := points - 2; i >= 0; i-- {
		move := (rng.Float64()*2 - 1) * maxDailyMove
		closes[i] = closes[i+1] / (1 + move)
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	series := make([]domain.PricePoint, points)
	for i := 0; i < points; i++ {
		open := closes[i]
		if i > 0 {
			open = closes[i-1]
		}
		hi := math.Max(open, closes[i]) * (1 + rng.Float64()*0.01)
		lo := math.Min(open, closes[i]) * (1 - rng.Float64()*0.01)
		vol := closes[i] * 40000 * (0.8 + rng.Float64()*0.4)

		series[i] = domain.PricePoint{
			Time:      end.Add(-time.Duration(points-1-i) * 24 * time.Hour),
			Open:      open,
			High:      hi,
			Low:       lo,
			Close:     closes[i],
			Volume:    vol,
			Synthetic: true,
		}
	}
	return series
}
