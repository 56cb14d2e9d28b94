// Package analysis turns a price history into indicators, entry
// signals, and the final entry-quality score for a tracked asset.
package analysis

import (
	"math"

	"entrywatch/internal/domain"
	"entrywatch/internal/ta"
)

const (
	rsiPeriod  = 14
	srLookback = 20

	// minPoints is what Wilder RSI(14) needs to produce a value.
	minPoints = 15

	// syntheticDiscount scales signal confidence when the history was
	// locally generated fallback data.
	syntheticDiscount = 0.6
)

// Compute derives the full indicator snapshot from a price history.
// It is a pure function of its input. Histories that are too short or
// degenerate (all-zero closes) yield ErrInsufficientData.
func Compute(history []domain.PricePoint) (*domain.IndicatorSnapshot, error) {
	if len(history) < minPoints {
		return nil, domain.ErrInsufficientData
	}

	closes := make([]float64, len(history))
	highs := make([]float64, len(history))
	lows := make([]float64, len(history))
	volumes := make([]float64, len(history))
	degenerate := true
	synthetic := false
	for i, pt := range history {
		closes[i] = pt.Close
		highs[i] = pt.High
		lows[i] = pt.Low
		volumes[i] = pt.Volume
		if pt.Close != 0 {
			degenerate = false
		}
		if pt.Synthetic {
			synthetic = true
		}
	}
	if degenerate {
		return nil, domain.ErrInsufficientData
	}

	price := closes[len(closes)-1]
	rsi := ta.RSI(closes, rsiPeriod)
	macd, macdSignal := ta.MACD(closes)
	prevMACD, prevMACDSignal := ta.MACD(closes[:len(closes)-1])

	sma10 := ta.SMA(closes, 10)
	sma50 := ta.SMA(closes, 50)
	resistance, support := ta.HighLow(highs, lows, srLookback)
	fib38, fib50, fib61 := ta.FibLevels(resistance, support)
	avgVol := ta.SMA(volumes, srLookback)

	snap := &domain.IndicatorSnapshot{
		RSI:           rsi,
		MACD:          macd,
		MACDSignal:    macdSignal,
		SMA10:         sma10,
		SMA50:         sma50,
		EMA10:         ta.EMA(closes, 10),
		EMA50:         ta.EMA(closes, 50),
		Support:       support,
		Resistance:    resistance,
		Fib38:         fib38,
		Fib50:         fib50,
		Fib61:         fib61,
		AvgVolume20:   avgVol,
		CurrentVolume: volumes[len(volumes)-1],
		Trend:         classifyTrend(price, sma10, sma50),
		Synthetic:     synthetic,
	}

	prevClose := closes[len(closes)-2]
	snap.Signals = buildSignals(signalInputs{
		price:          price,
		prevClose:      prevClose,
		rsi:            rsi,
		macd:           macd,
		macdSignal:     macdSignal,
		prevMACD:       prevMACD,
		prevMACDSignal: prevMACDSignal,
		support:        support,
		resistance:     resistance,
		fibs:           [3]float64{fib38, fib50, fib61},
		volumeRatio:    volumeRatio(snap.CurrentVolume, avgVol),
	})
	if synthetic {
		for i := range snap.Signals {
			snap.Signals[i].Confidence *= syntheticDiscount
		}
	}

	snap.Quality = overallQuality(snap.Signals, snap.Trend)
	return snap, nil
}

func classifyTrend(price, sma10, sma50 float64) domain.Trend {
	switch {
	case sma10 > sma50 && price > sma10 && price > sma50:
		return domain.TrendBullish
	case sma10 < sma50 && price < sma10 && price < sma50:
		return domain.TrendBearish
	default:
		return domain.TrendNeutral
	}
}

func volumeRatio(current, avg float64) float64 {
	if avg <= 0 || math.IsNaN(avg) {
		return 0
	}
	return current / avg
}

// strengthWeight converts a strength tier into a vote weight.
func strengthWeight(s domain.SignalStrength) float64 {
	switch s {
	case domain.StrengthVeryStrong:
		return 1.0
	case domain.StrengthStrong:
		return 0.8
	case domain.StrengthModerate:
		return 0.6
	case domain.StrengthWeak:
		return 0.4
	default:
		return 0.2
	}
}

// overallQuality collapses the weighted signal vote plus a trend bias
// into the five-level verdict.
func overallQuality(signals []domain.EntrySignal, trend domain.Trend) domain.EntryQuality {
	total := 0.0
	switch trend {
	case domain.TrendBullish:
		total = 0.4
	case domain.TrendNeutral:
		total = 0.2
	}
	for _, s := range signals {
		total += strengthWeight(s.Strength) * s.Confidence
	}

	switch {
	case total >= 2.0:
		return domain.QualityExcellent
	case total >= 1.3:
		return domain.QualityGood
	case total >= 0.7:
		return domain.QualityAverage
	case total >= 0.3:
		return domain.QualityPoor
	default:
		return domain.QualityVeryPoor
	}
}
