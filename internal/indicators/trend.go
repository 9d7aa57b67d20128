package indicators

import (
	"math"

	"qbot-core/internal/market"
)

// Trend labels the current market direction.
type Trend string

const (
	TrendBullish  Trend = "bullish"
	TrendBearish  Trend = "bearish"
	TrendSideways Trend = "sideways"
)

// trendThreshold is the minimum MA separation (0.1%) before a trend is
// called, to filter noise.
const trendThreshold = 0.001

// TrendDirection determines the market trend from a dual moving-average
// comparison over closes (short=5, long=10). With fewer than the long
// period of candles it falls back to comparing the last three closes.
func TrendDirection(candles []market.Candle) Trend {
	const shortPeriod, longPeriod = 5, 10

	if len(candles) < longPeriod {
		if len(candles) < 3 {
			return TrendSideways
		}
		first := candles[len(candles)-3].Close
		last := candles[len(candles)-1].Close
		switch {
		case last > first*(1+trendThreshold):
			return TrendBullish
		case last < first*(1-trendThreshold):
			return TrendBearish
		default:
			return TrendSideways
		}
	}

	closes := make([]float64, 0, longPeriod)
	for _, c := range candles[len(candles)-longPeriod:] {
		closes = append(closes, c.Close)
	}
	maShort := SMA(closes, shortPeriod)
	maLong := SMA(closes, longPeriod)

	switch {
	case maShort > maLong*(1+trendThreshold):
		return TrendBullish
	case maShort < maLong*(1-trendThreshold):
		return TrendBearish
	default:
		return TrendSideways
	}
}

// ATR calculates the Average True Range over the last period candles.
// True range = max(high-low, |high-prevClose|, |low-prevClose|).
// Returns 0 when there are not enough candles.
func ATR(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 0
	}
	trueRanges := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close
		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trueRanges = append(trueRanges, tr)
	}
	return SMA(trueRanges, period)
}
