package analysis

import (
	"fmt"
	"math"

	"entrywatch/internal/domain"
)

const (
	oversoldThreshold   = 30.0
	supportProximity    = 0.01
	fibProximity        = 0.01
	breakoutVolumeRatio = 1.5
)

type signalInputs struct {
	price          float64
	prevClose      float64
	rsi            float64
	macd           float64
	macdSignal     float64
	prevMACD       float64
	prevMACDSignal float64
	support        float64
	resistance     float64
	fibs           [3]float64
	volumeRatio    float64
}

// buildSignals evaluates each rule independently; any subset may fire.
func buildSignals(in signalInputs) []domain.EntrySignal {
	var signals []domain.EntrySignal
	if s, ok := oversoldSignal(in); ok {
		signals = append(signals, s)
	}
	if s, ok := macdCrossoverSignal(in); ok {
		signals = append(signals, s)
	}
	if s, ok := supportBounceSignal(in); ok {
		signals = append(signals, s)
	}
	if s, ok := volumeBreakoutSignal(in); ok {
		signals = append(signals, s)
	}
	if s, ok := fibRetracementSignal(in); ok {
		signals = append(signals, s)
	}
	return signals
}

// strengthFromDeviation buckets a deviation into strength tiers, where
// scale is the deviation that counts as maximal conviction.
func strengthFromDeviation(dev, scale float64) domain.SignalStrength {
	if scale <= 0 {
		return domain.StrengthVeryWeak
	}
	switch r := dev / scale; {
	case r >= 1:
		return domain.StrengthVeryStrong
	case r >= 0.75:
		return domain.StrengthStrong
	case r >= 0.5:
		return domain.StrengthModerate
	case r >= 0.25:
		return domain.StrengthWeak
	default:
		return domain.StrengthVeryWeak
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func oversoldSignal(in signalInputs) (domain.EntrySignal, bool) {
	if math.IsNaN(in.rsi) || in.rsi >= oversoldThreshold {
		return domain.EntrySignal{}, false
	}
	depth := oversoldThreshold - in.rsi
	return domain.EntrySignal{
		Technique:   domain.TechniqueOversold,
		Strength:    strengthFromDeviation(depth, 20),
		Description: fmt.Sprintf("RSI %.1f below %.0f, oversold", in.rsi, oversoldThreshold),
		TargetPrice: in.fibs[1],
		StopLoss:    in.support * 0.97,
		Confidence:  clamp(0.5+depth/60, 0, 0.95),
	}, true
}

func macdCrossoverSignal(in signalInputs) (domain.EntrySignal, bool) {
	if math.IsNaN(in.macd) || math.IsNaN(in.macdSignal) {
		return domain.EntrySignal{}, false
	}
	crossed := in.macd > in.macdSignal && in.prevMACD <= in.prevMACDSignal
	if !crossed {
		return domain.EntrySignal{}, false
	}
	gap := in.macd - in.macdSignal
	rel := 0.0
	if in.price > 0 {
		rel = gap / in.price
	}
	return domain.EntrySignal{
		Technique:   domain.TechniqueMACDCrossover,
		Strength:    strengthFromDeviation(rel, 0.01),
		Description: fmt.Sprintf("MACD crossed above signal (%.4f > %.4f)", in.macd, in.macdSignal),
		TargetPrice: in.price * 1.08,
		StopLoss:    in.price * 0.96,
		Confidence:  clamp(0.6+rel*20, 0, 0.9),
	}, true
}

func supportBounceSignal(in signalInputs) (domain.EntrySignal, bool) {
	if in.support <= 0 || in.price < in.support {
		return domain.EntrySignal{}, false
	}
	dist := (in.price - in.support) / in.support
	if dist > supportProximity {
		return domain.EntrySignal{}, false
	}
	return domain.EntrySignal{
		Technique:   domain.TechniqueSupportBounce,
		Strength:    strengthFromDeviation(supportProximity-dist, supportProximity),
		Description: fmt.Sprintf("price %.2f holding support %.2f", in.price, in.support),
		TargetPrice: in.fibs[1],
		StopLoss:    in.support * 0.98,
		Confidence:  0.65,
	}, true
}

func volumeBreakoutSignal(in signalInputs) (domain.EntrySignal, bool) {
	if in.volumeRatio < breakoutVolumeRatio || in.price <= in.prevClose {
		return domain.EntrySignal{}, false
	}
	excess := in.volumeRatio - breakoutVolumeRatio
	return domain.EntrySignal{
		Technique:   domain.TechniqueVolumeBreakout,
		Strength:    strengthFromDeviation(excess, breakoutVolumeRatio),
		Description: fmt.Sprintf("volume %.1fx the 20-day average on an up day", in.volumeRatio),
		TargetPrice: in.price * 1.10,
		StopLoss:    in.price * 0.95,
		Confidence:  clamp(0.5+excess/3, 0, 0.9),
	}, true
}

func fibRetracementSignal(in signalInputs) (domain.EntrySignal, bool) {
	labels := [3]string{"38.2%", "50%", "61.8%"}
	bestIdx := -1
	bestDist := math.Inf(1)
	for i, level := range in.fibs {
		if level <= 0 {
			continue
		}
		d := math.Abs(in.price-level) / level
		if d <= fibProximity && d < bestDist {
			bestIdx, bestDist = i, d
		}
	}
	if bestIdx < 0 {
		return domain.EntrySignal{}, false
	}
	level := in.fibs[bestIdx]
	return domain.EntrySignal{
		Technique:   domain.TechniqueFibRetracement,
		Strength:    strengthFromDeviation(fibProximity-bestDist, fibProximity),
		Description: fmt.Sprintf("price %.2f at the %s retracement %.2f", in.price, labels[bestIdx], level),
		TargetPrice: in.resistance,
		StopLoss:    level * 0.97,
		Confidence:  0.55,
	}, true
}
