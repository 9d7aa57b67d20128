package indicators

import "math"

// SMA calculates the simple moving average for the last period values.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period)
}

// StdDev calculates the population standard deviation of the last
// period values around their SMA.
func StdDev(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	mean := SMA(values, period)
	variance := 0.0
	for i := len(values) - period; i < len(values); i++ {
		d := values[i] - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(period))
}

// Bollinger returns the upper, middle and lower Bollinger Band values
// for the last candle of the series.
func Bollinger(closes []float64, period int, deviation float64) (upper, middle, lower float64) {
	if period <= 0 || len(closes) < period {
		return 0, 0, 0
	}
	middle = SMA(closes, period)
	sd := StdDev(closes, period)
	upper = middle + deviation*sd
	lower = middle - deviation*sd
	return upper, middle, lower
}
