package analysis

import (
	"math"
	"testing"

	"entrywatch/internal/domain"
)

func TestOversoldSignal(t *testing.T) {
	t.Parallel()

	in := signalInputs{rsi: 25, support: 100, fibs: [3]float64{110, 108, 106}}
	s, ok := oversoldSignal(in)
	if !ok {
		t.Fatal("RSI 25 must fire")
	}
	if s.Strength != domain.StrengthWeak {
		t.Fatalf("depth 5 of 20 should be weak, got %v", s.Strength)
	}
	if !almostEqual(s.Confidence, 0.5+5.0/60) {
		t.Fatalf("unexpected confidence: %f", s.Confidence)
	}
	if !almostEqual(s.StopLoss, 97) {
		t.Fatalf("stop must sit below support, got %f", s.StopLoss)
	}

	if _, ok := oversoldSignal(signalInputs{rsi: 31}); ok {
		t.Fatal("RSI above threshold must not fire")
	}
	if _, ok := oversoldSignal(signalInputs{rsi: math.NaN()}); ok {
		t.Fatal("NaN RSI must not fire")
	}

	deep, _ := oversoldSignal(signalInputs{rsi: 5})
	if deep.Strength != domain.StrengthVeryStrong {
		t.Fatalf("RSI 5 should be very strong, got %v", deep.Strength)
	}
}

func TestMACDCrossoverSignal(t *testing.T) {
	t.Parallel()

	in := signalInputs{price: 100, macd: 1.2, macdSignal: 1.0, prevMACD: 0.9, prevMACDSignal: 1.0}
	s, ok := macdCrossoverSignal(in)
	if !ok {
		t.Fatal("fresh cross must fire")
	}
	if s.Strength != domain.StrengthVeryWeak {
		t.Fatalf("tiny gap should be very weak, got %v", s.Strength)
	}
	if !almostEqual(s.TargetPrice, 108) || !almostEqual(s.StopLoss, 96) {
		t.Fatalf("unexpected levels: %f %f", s.TargetPrice, s.StopLoss)
	}

	in.prevMACD = 1.1
	if _, ok := macdCrossoverSignal(in); ok {
		t.Fatal("already-crossed lines must not fire again")
	}
}

func TestSupportBounceSignal(t *testing.T) {
	t.Parallel()

	s, ok := supportBounceSignal(signalInputs{price: 100.5, support: 100, fibs: [3]float64{110, 108, 106}})
	if !ok {
		t.Fatal("price within 1%% of support must fire")
	}
	if s.Strength != domain.StrengthModerate {
		t.Fatalf("half-proximity should be moderate, got %v", s.Strength)
	}

	if _, ok := supportBounceSignal(signalInputs{price: 102, support: 100}); ok {
		t.Fatal("price away from support must not fire")
	}
	if _, ok := supportBounceSignal(signalInputs{price: 99, support: 100}); ok {
		t.Fatal("price below support is a breakdown, not a bounce")
	}
}

func TestVolumeBreakoutSignal(t *testing.T) {
	t.Parallel()

	s, ok := volumeBreakoutSignal(signalInputs{price: 101, prevClose: 100, volumeRatio: 2.0})
	if !ok {
		t.Fatal("2x volume on an up day must fire")
	}
	if !almostEqual(s.Confidence, 0.5+0.5/3) {
		t.Fatalf("unexpected confidence: %f", s.Confidence)
	}

	if _, ok := volumeBreakoutSignal(signalInputs{price: 99, prevClose: 100, volumeRatio: 2.0}); ok {
		t.Fatal("down day must not fire")
	}
	if _, ok := volumeBreakoutSignal(signalInputs{price: 101, prevClose: 100, volumeRatio: 1.2}); ok {
		t.Fatal("ordinary volume must not fire")
	}
}

func TestFibRetracementSignal(t *testing.T) {
	t.Parallel()

	in := signalInputs{price: 150, resistance: 160, fibs: [3]float64{152, 150.5, 138}}
	s, ok := fibRetracementSignal(in)
	if !ok {
		t.Fatal("price at the 50%% level must fire")
	}
	if !almostEqual(s.TargetPrice, 160) {
		t.Fatalf("target should be the resistance, got %f", s.TargetPrice)
	}
	if !almostEqual(s.StopLoss, 150.5*0.97) {
		t.Fatalf("stop should sit below the level, got %f", s.StopLoss)
	}

	if _, ok := fibRetracementSignal(signalInputs{price: 170, fibs: [3]float64{152, 150.5, 138}}); ok {
		t.Fatal("price away from every level must not fire")
	}
}
