package advisor

import (
	"strings"
	"testing"

	"entrywatch/internal/domain"
)

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt()
	if !strings.Contains(prompt, "entry-timing advisor") {
		t.Fatalf("prompt missing role description: %s", prompt)
	}
	if !strings.Contains(prompt, "Current time:") {
		t.Fatal("prompt missing timestamp")
	}
}

func TestFormatAssetContext(t *testing.T) {
	out := FormatAssetContext(testAsset())

	for _, want := range []string{"Bitcoin (BTC)", "$97000.00", "Entry target: $90000.00", "Entry score: 80 (BUY)", "rsi_oversold"} {
		if !strings.Contains(out, want) {
			t.Fatalf("context missing %q:\n%s", want, out)
		}
	}
}

func TestFormatAssetContextWithoutAnalysis(t *testing.T) {
	out := FormatAssetContext(domain.TrackedAsset{Symbol: "ETH", Name: "Ethereum"})
	if !strings.Contains(out, "No technical analysis has run") {
		t.Fatalf("missing no-analysis note:\n%s", out)
	}
}

func TestFormatAssetContextMarksSynthetic(t *testing.T) {
	a := testAsset()
	a.Indicators.Synthetic = true
	if out := FormatAssetContext(a); !strings.Contains(out, "synthetic fallback") {
		t.Fatalf("synthetic flag not surfaced:\n%s", out)
	}
}
