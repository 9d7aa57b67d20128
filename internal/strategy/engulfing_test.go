package strategy

import (
	"testing"

	"qbot-core/internal/market"
)

func engulfWindow(prev, curr market.Candle) market.Window {
	filler := candle(1.10, 1.12, 1.08, 1.11)
	return market.Window{filler, filler, filler, filler, prev, curr}
}

func TestEngulfingDetect(t *testing.T) {
	tests := []struct {
		name      string
		prev      market.Candle
		curr      market.Candle
		wantSig   Signal
		wantValid bool
	}{
		{
			name:      "bullish engulfing",
			prev:      candle(1.12, 1.125, 1.105, 1.11), // bearish
			curr:      candle(1.105, 1.14, 1.10, 1.135), // bullish, covers prev range
			wantSig:   SignalCall,
			wantValid: true,
		},
		{
			name:      "bearish engulfing",
			prev:      candle(1.11, 1.125, 1.105, 1.12), // bullish
			curr:      candle(1.125, 1.13, 1.095, 1.10), // bearish, covers prev range
			wantSig:   SignalPut,
			wantValid: true,
		},
		{
			name:      "no engulfing when range not covered",
			prev:      candle(1.12, 1.14, 1.10, 1.11),
			curr:      candle(1.11, 1.13, 1.105, 1.125),
			wantSig:   SignalNone,
			wantValid: false,
		},
		{
			name:      "weak body rejected",
			prev:      candle(1.12, 1.125, 1.105, 1.11),
			curr:      candle(1.11, 1.15, 1.10, 1.118), // body well under 30% of range
			wantSig:   SignalNone,
			wantValid: false,
		},
		{
			name:      "close at high rejected",
			prev:      candle(1.12, 1.125, 1.105, 1.11),
			curr:      candle(1.105, 1.14, 1.10, 1.14), // green close == high
			wantSig:   SignalNone,
			wantValid: false,
		},
		{
			name:      "same-direction candles rejected",
			prev:      candle(1.105, 1.125, 1.10, 1.12),
			curr:      candle(1.10, 1.14, 1.095, 1.135),
			wantSig:   SignalNone,
			wantValid: false,
		},
	}

	d := NewEngulfingDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := d.Detect(engulfWindow(tt.prev, tt.curr))
			if sig != tt.wantSig || ok != tt.wantValid {
				t.Fatalf("Detect() = (%q, %v), expected (%q, %v)", sig, ok, tt.wantSig, tt.wantValid)
			}
		})
	}
}

func TestBuildSkipsDisabledAndUnknown(t *testing.T) {
	detectors := Build([]Config{
		{Type: "breakout", Enabled: true},
		{Type: "engulfing", Enabled: false},
		{Type: "does_not_exist", Enabled: true},
		{Type: "bollinger_break", Enabled: true, Parameters: map[string]any{"period": 10, "deviation": 2.0}},
	})

	if len(detectors) != 2 {
		t.Fatalf("Build returned %d detectors, expected 2", len(detectors))
	}
	if detectors[0].Name() != "breakout" {
		t.Fatalf("first detector = %q, expected breakout", detectors[0].Name())
	}
	if detectors[1].Name() != "bollinger_break" {
		t.Fatalf("second detector = %q, expected bollinger_break", detectors[1].Name())
	}
}
