package advisor

import (
	"fmt"
	"strings"
	"time"

	"entrywatch/internal/domain"
)

const advisorRole = `You are a crypto entry-timing advisor. Your role is to interpret the technical analysis you are given, NOT to generate new signals or price predictions.

Rules:
- Always reference the specific indicators and signals provided.
- Never fabricate data. If a value is missing, say so.
- Express uncertainty when signals conflict with the overall score.
- If the data is marked as synthetic fallback, say the read is low-confidence.
- Keep responses concise. Three or four sentences at most.
- Do not add financial advice disclaimers. The user understands this is informational.`

func BuildSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString(advisorRole)
	sb.WriteString("\n\nCurrent time: ")
	sb.WriteString(time.Now().UTC().Format(time.RFC822))
	return sb.String()
}

// FormatAssetContext renders one asset's state as the user message.
func FormatAssetContext(a domain.TrackedAsset) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s (%s)\n", a.Name, a.Symbol))
	sb.WriteString(fmt.Sprintf("Price: $%.2f\n", a.CurrentPrice))
	if a.EntryTarget > 0 {
		sb.WriteString(fmt.Sprintf("Entry target: $%.2f\n", a.EntryTarget))
	}
	if a.Target3Month > 0 {
		sb.WriteString(fmt.Sprintf("3-month target: $%.2f\n", a.Target3Month))
	}
	sb.WriteString(fmt.Sprintf("Entry score: %.0f (%s)\n", a.Score, a.Signal))

	snap := a.Indicators
	if snap == nil {
		sb.WriteString("No technical analysis has run for this asset yet.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Trend: %s, quality: %s\n", snap.Trend, snap.Quality))
	sb.WriteString(fmt.Sprintf("RSI: %.1f, MACD: %.4f (signal %.4f)\n", snap.RSI, snap.MACD, snap.MACDSignal))
	sb.WriteString(fmt.Sprintf("SMA10: %.2f, SMA50: %.2f\n", snap.SMA10, snap.SMA50))
	sb.WriteString(fmt.Sprintf("Support: %.2f, resistance: %.2f\n", snap.Support, snap.Resistance))

	if len(snap.Signals) > 0 {
		sb.WriteString("Entry signals:\n")
		for _, s := range snap.Signals {
			sb.WriteString(fmt.Sprintf("  %s (%s, confidence %.2f): %s\n",
				s.Technique, s.Strength, s.Confidence, s.Description))
		}
	} else {
		sb.WriteString("No entry signals fired.\n")
	}

	if snap.Synthetic {
		sb.WriteString("NOTE: indicators were computed from synthetic fallback data.\n")
	}
	return sb.String()
}
