package strategy

import (
	"testing"

	"qbot-core/internal/market"
)

// candle is shorthand for building test windows.
func candle(open, high, low, close float64) market.Candle {
	return market.Candle{Open: open, High: high, Low: low, Close: close}
}

func TestBreakoutShortWindowNeverValid(t *testing.T) {
	d := NewBreakoutDetector()

	for n := 0; n < market.MinWindow; n++ {
		w := make(market.Window, 0, n)
		for i := 0; i < n; i++ {
			w = append(w, candle(1, 2, 0.5, 1.5))
		}
		sig, ok := d.Detect(w)
		if ok || sig != SignalNone {
			t.Fatalf("window of %d candles: got (%q, %v), expected (none, false)", n, sig, ok)
		}
	}
}

func TestBreakoutSignals(t *testing.T) {
	tests := []struct {
		name      string
		window    market.Window
		wantSig   Signal
		wantValid bool
	}{
		{
			name: "call when prev low is the window low and close breaks prev high",
			window: market.Window{
				candle(1.12, 1.15, 1.10, 1.13),
				candle(1.13, 1.14, 1.12, 1.13),
				candle(1.12, 1.16, 1.11, 1.14),
				candle(1.14, 1.15, 1.10, 1.12),
				candle(1.11, 1.13, 1.09, 1.12), // prev: the extreme low
				candle(1.12, 1.21, 1.11, 1.20), // curr closes above prev high
			},
			wantSig:   SignalCall,
			wantValid: true,
		},
		{
			name: "put when prev high is the window high and close breaks prev low",
			window: market.Window{
				candle(1.12, 1.15, 1.10, 1.13),
				candle(1.13, 1.14, 1.12, 1.13),
				candle(1.12, 1.16, 1.11, 1.14),
				candle(1.14, 1.15, 1.10, 1.12),
				candle(1.14, 1.17, 1.13, 1.15), // prev: the extreme high
				candle(1.14, 1.15, 1.04, 1.05), // curr closes below prev low
			},
			wantSig:   SignalPut,
			wantValid: true,
		},
		{
			name: "no signal when prev is not the extreme",
			window: market.Window{
				candle(1.12, 1.15, 1.09, 1.13),
				candle(1.13, 1.14, 1.12, 1.13),
				candle(1.12, 1.16, 1.11, 1.14),
				candle(1.14, 1.15, 1.10, 1.12),
				candle(1.11, 1.13, 1.10, 1.12),
				candle(1.12, 1.21, 1.11, 1.20),
			},
			wantSig:   SignalNone,
			wantValid: false,
		},
		{
			name: "no signal when close does not break beyond prev range",
			window: market.Window{
				candle(1.12, 1.15, 1.10, 1.13),
				candle(1.13, 1.14, 1.12, 1.13),
				candle(1.12, 1.16, 1.11, 1.14),
				candle(1.14, 1.15, 1.10, 1.12),
				candle(1.11, 1.13, 1.09, 1.12),
				candle(1.12, 1.13, 1.10, 1.12), // inside prev range
			},
			wantSig:   SignalNone,
			wantValid: false,
		},
		{
			name: "near-extreme prev low is not enough",
			window: market.Window{
				candle(1.12, 1.15, 1.10, 1.13),
				candle(1.13, 1.14, 1.12, 1.13),
				candle(1.12, 1.16, 1.09, 1.14), // the real extreme low
				candle(1.14, 1.15, 1.10, 1.12),
				candle(1.11, 1.13, 1.0901, 1.12), // close to, but not, the extreme
				candle(1.12, 1.21, 1.11, 1.20),
			},
			wantSig:   SignalNone,
			wantValid: false,
		},
	}

	d := NewBreakoutDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := d.Detect(tt.window)
			if sig != tt.wantSig || ok != tt.wantValid {
				t.Fatalf("Detect() = (%q, %v), expected (%q, %v)", sig, ok, tt.wantSig, tt.wantValid)
			}
		})
	}
}

// The call and put guards are disjoint by construction: call needs the
// close above prev.high, put needs it below prev.low, and high >= low.
// Sweep generated windows and make sure both never fire together.
func TestBreakoutCallPutMutuallyExclusive(t *testing.T) {
	// Deterministic pseudo-random windows.
	seed := uint64(42)
	next := func() float64 {
		seed = seed*6364136223846793005 + 1442695040888963407
		return 1.0 + float64(seed%10000)/10000.0
	}

	for i := 0; i < 5000; i++ {
		w := make(market.Window, market.MinWindow)
		for j := range w {
			a, b := next(), next()
			high, low := a, b
			if low > high {
				high, low = low, high
			}
			w[j] = candle(low+(high-low)/2, high, low, next())
		}

		prev, curr, extrema := w.Previous(), w.Current(), w.Extrema()
		callGuard := prev.Low == market.LowestLow(extrema) && curr.Close > prev.High
		putGuard := prev.High == market.HighestHigh(extrema) && curr.Close < prev.Low
		if callGuard && putGuard {
			t.Fatalf("window %d satisfies both call and put guards: %+v", i, w)
		}
	}
}
