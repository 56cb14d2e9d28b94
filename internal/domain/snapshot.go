package domain

// Trend classifies the moving-average structure of a price history.
type Trend int

const (
	TrendNeutral Trend = iota
	TrendBullish
	TrendBearish
)

func (t Trend) String() string {
	switch t {
	case TrendBullish:
		return "bullish"
	case TrendBearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// EntryQuality is the five-level overall verdict on entry timing.
type EntryQuality int

const (
	QualityVeryPoor EntryQuality = iota
	QualityPoor
	QualityAverage
	QualityGood
	QualityExcellent
)

func (q EntryQuality) String() string {
	switch q {
	case QualityExcellent:
		return "EXCELLENT"
	case QualityGood:
		return "GOOD"
	case QualityAverage:
		return "AVERAGE"
	case QualityPoor:
		return "POOR"
	default:
		return "VERY_POOR"
	}
}

// Score returns the fixed quality-to-score mapping.
func (q EntryQuality) Score() float64 {
	switch q {
	case QualityExcellent:
		return 95
	case QualityGood:
		return 80
	case QualityAverage:
		return 60
	case QualityPoor:
		return 30
	default:
		return 10
	}
}

// SignalStrength ranks an entry signal by the magnitude of its deviation.
type SignalStrength int

const (
	StrengthVeryWeak SignalStrength = iota
	StrengthWeak
	StrengthModerate
	StrengthStrong
	StrengthVeryStrong
)

func (s SignalStrength) String() string {
	switch s {
	case StrengthVeryStrong:
		return "very_strong"
	case StrengthStrong:
		return "strong"
	case StrengthModerate:
		return "moderate"
	case StrengthWeak:
		return "weak"
	default:
		return "very_weak"
	}
}

// Technique identifies the rule that produced an entry signal.
type Technique string

const (
	TechniqueOversold       Technique = "rsi_oversold"
	TechniqueMACDCrossover  Technique = "macd_crossover"
	TechniqueSupportBounce  Technique = "support_bounce"
	TechniqueVolumeBreakout Technique = "volume_breakout"
	TechniqueFibRetracement Technique = "fib_retracement"
)

// EntrySignal is one discrete technique-tagged buy recommendation.
type EntrySignal struct {
	Technique   Technique      `json:"technique"`
	Strength    SignalStrength `json:"strength"`
	Description string         `json:"description"`
	TargetPrice float64        `json:"target_price"`
	StopLoss    float64        `json:"stop_loss"`
	Confidence  float64        `json:"confidence"`
}

// IndicatorSnapshot is the full technical picture computed from one
// price history. Synthetic reports whether the underlying bars were
// locally generated fallback data.
type IndicatorSnapshot struct {
	RSI           float64       `json:"rsi"`
	MACD          float64       `json:"macd"`
	MACDSignal    float64       `json:"macd_signal"`
	SMA10         float64       `json:"sma10"`
	SMA50         float64       `json:"sma50"`
	EMA10         float64       `json:"ema10"`
	EMA50         float64       `json:"ema50"`
	Support       float64       `json:"support"`
	Resistance    float64       `json:"resistance"`
	Fib38         float64       `json:"fib38"`
	Fib50         float64       `json:"fib50"`
	Fib61         float64       `json:"fib61"`
	AvgVolume20   float64       `json:"avg_volume20"`
	CurrentVolume float64       `json:"current_volume"`
	Trend         Trend         `json:"trend"`
	Signals       []EntrySignal `json:"signals"`
	Quality       EntryQuality  `json:"quality"`
	Synthetic     bool          `json:"synthetic,omitempty"`
}
