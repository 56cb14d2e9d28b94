package ta

import "math"

// SMA returns the simple arithmetic mean of the last period values.
// Shorter inputs average whatever is available.
func SMA(values []float64, period int) float64 {
	if len(values) == 0 || period <= 0 {
		return 0
	}
	if period > len(values) {
		period = len(values)
	}
	window := values[len(values)-period:]
	var sum float64
	for _, v := range window {
		sum += v
	}
	return sum / float64(period)
}

// EMASeries computes an exponential moving average seeded by the SMA of
// the first period values. Positions before the seed are NaN. Inputs
// shorter than period are seeded from all available values.
func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if period <= 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}

	seedIdx := period - 1
	if seedIdx >= len(values) {
		seedIdx = len(values) - 1
	}

	out := make([]float64, len(values))
	var seedSum float64
	for i := 0; i <= seedIdx; i++ {
		out[i] = math.NaN()
		seedSum += values[i]
	}
	out[seedIdx] = seedSum / float64(seedIdx+1)

	alpha := 2.0 / float64(period+1)
	for i := seedIdx + 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// EMA returns the final value of EMASeries.
func EMA(values []float64, period int) float64 {
	series := EMASeries(values, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// RSISeries computes Wilder's smoothed RSI. Positions before the first
// computable value are NaN.
func RSISeries(closes []float64, period int) []float64 {
	if len(closes) <= period {
		return nil
	}
	series := make([]float64, len(closes))
	for i := range series {
		series[i] = math.NaN()
	}

	var gainSum float64
	var lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	series[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		series[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return series
}

// RSI returns the latest Wilder RSI value, or NaN when the input is too short.
func RSI(closes []float64, period int) float64 {
	series := RSISeries(closes, period)
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACD returns the latest MACD line (EMA12-EMA26) and its EMA9 signal line.
func MACD(closes []float64) (float64, float64) {
	if len(closes) == 0 {
		return 0, 0
	}
	fast := EMASeries(closes, 12)
	slow := EMASeries(closes, 26)

	var macdLine []float64
	for i := range closes {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) {
			continue
		}
		macdLine = append(macdLine, fast[i]-slow[i])
	}
	if len(macdLine) == 0 {
		return 0, 0
	}
	return macdLine[len(macdLine)-1], EMA(macdLine, 9)
}

// HighLow returns the highest high and lowest low over the last lookback bars.
func HighLow(highs, lows []float64, lookback int) (float64, float64) {
	if len(highs) == 0 || len(lows) == 0 {
		return 0, 0
	}
	if lookback > len(highs) {
		lookback = len(highs)
	}
	hi := highs[len(highs)-lookback]
	for _, v := range highs[len(highs)-lookback:] {
		hi = math.Max(hi, v)
	}
	lookbackLow := lookback
	if lookbackLow > len(lows) {
		lookbackLow = len(lows)
	}
	lo := lows[len(lows)-lookbackLow]
	for _, v := range lows[len(lows)-lookbackLow:] {
		lo = math.Min(lo, v)
	}
	return hi, lo
}

// FibLevels returns the 38.2/50/61.8 retracement levels measured down
// from high over the high-low range.
func FibLevels(high, low float64) (float64, float64, float64) {
	span := high - low
	return high - span*0.382, high - span*0.5, high - span*0.618
}
