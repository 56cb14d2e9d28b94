package domain

import "time"

// TrackedAsset is one asset under observation. The consumer (portfolio or
// watchlist) owns identity, targets, and holdings; the analysis core only
// writes the price and analysis fields.
type TrackedAsset struct {
	VendorID string `json:"vendor_id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`

	CurrentPrice   float64 `json:"current_price"`
	EntryTarget    float64 `json:"entry_target"`
	Target3Month   float64 `json:"target_3m"`
	TargetLongTerm float64 `json:"target_long_term"`
	Holdings       float64 `json:"holdings,omitempty"`
	AvgCost        float64 `json:"avg_cost,omitempty"`

	Indicators *IndicatorSnapshot `json:"indicators,omitempty"`
	Score      float64            `json:"score"`
	Signal     TradeSignal        `json:"signal"`
	Status     AnalysisStatus     `json:"status"`

	PriceUpdatedAt time.Time `json:"price_updated_at"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// PricePoint is a single OHLCV bar. Immutable once created.
// Synthetic marks bars generated locally when upstream data was unavailable.
type PricePoint struct {
	Time      time.Time `json:"time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Synthetic bool      `json:"synthetic,omitempty"`
}

// TradeSignal is the discrete recommendation derived from an entry score.
type TradeSignal int

const (
	SignalAvoid TradeSignal = iota
	SignalWait
	SignalNeutral
	SignalBuy
	SignalStrongBuy
)

func (s TradeSignal) String() string {
	switch s {
	case SignalStrongBuy:
		return "STRONG_BUY"
	case SignalBuy:
		return "BUY"
	case SignalNeutral:
		return "NEUTRAL"
	case SignalWait:
		return "WAIT"
	default:
		return "AVOID"
	}
}

// AnalysisStatus is the lifecycle state of an asset's last analysis attempt.
type AnalysisStatus int

const (
	StatusNone AnalysisStatus = iota
	StatusRunning
	StatusOK
	StatusError
)

func (s AnalysisStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "none"
	}
}

// CoinGeckoID maps internal symbols to CoinGecko API identifiers.
var CoinGeckoID = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"MATIC": "matic-network",
}

// CoinGeckoIDToSymbol is the reverse mapping.
var CoinGeckoIDToSymbol map[string]string

func init() {
	CoinGeckoIDToSymbol = make(map[string]string, len(CoinGeckoID))
	for sym, id := range CoinGeckoID {
		CoinGeckoIDToSymbol[id] = sym
	}
}

// SupportedSymbols lists all tracked crypto symbols.
var SupportedSymbols = []string{
	"BTC", "ETH", "SOL", "XRP", "ADA",
	"DOGE", "DOT", "AVAX", "LINK", "MATIC",
}

// DefaultTrackedAssets seeds the registry when Postgres has no saved state.
// Entry targets start at zero; consumers set them via the API or bot.
func DefaultTrackedAssets() []TrackedAsset {
	names := map[string]string{
		"BTC": "Bitcoin", "ETH": "Ethereum", "SOL": "Solana", "XRP": "XRP",
		"ADA": "Cardano", "DOGE": "Dogecoin", "DOT": "Polkadot",
		"AVAX": "Avalanche", "LINK": "Chainlink", "MATIC": "Polygon",
	}
	assets := make([]TrackedAsset, 0, len(SupportedSymbols))
	for _, sym := range SupportedSymbols {
		assets = append(assets, TrackedAsset{
			VendorID: CoinGeckoID[sym],
			Symbol:   sym,
			Name:     names[sym],
		})
	}
	return assets
}
