package analysis

import "entrywatch/internal/domain"

// TechnicalScore maps the snapshot's quality verdict onto the 0-100
// entry score.
func TechnicalScore(snap *domain.IndicatorSnapshot) (float64, domain.TradeSignal) {
	score := snap.Quality.Score()
	return score, SignalFor(score)
}

// TargetRatioScore is the coarse fallback used before any technical
// analysis has run: it scores how far the current price sits from the
// consumer-set entry target. ratio = price / target, lower is better.
func TargetRatioScore(currentPrice, entryTarget float64) (float64, domain.TradeSignal) {
	if currentPrice <= 0 || entryTarget <= 0 {
		return 0, SignalFor(0)
	}

	ratio := currentPrice / entryTarget
	var score float64
	switch {
	case ratio <= 0.90:
		score = 90 + clamp((0.90-ratio)*100, 0, 10)
	case ratio <= 0.95:
		score = 80 + (0.95-ratio)/0.05*10
	case ratio <= 1.05:
		score = 60 + (1.05-ratio)/0.10*20
	case ratio <= 1.15:
		score = 20 + (1.15-ratio)/0.10*40
	default:
		score = clamp(20-(ratio-1.15)*100, 0, 20)
	}
	return score, SignalFor(score)
}

// SignalFor converts a numeric entry score into the discrete signal.
func SignalFor(score float64) domain.TradeSignal {
	switch {
	case score >= 85:
		return domain.SignalStrongBuy
	case score >= 70:
		return domain.SignalBuy
	case score >= 40:
		return domain.SignalNeutral
	case score >= 20:
		return domain.SignalWait
	default:
		return domain.SignalAvoid
	}
}
