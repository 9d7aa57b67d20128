// Package sizing converts account balance into a per-trade stake.
package sizing

import "math"

// MinStake is the smallest order most binary brokers accept.
const MinStake = 1.0

// Stake returns the amount to risk on one trade. fraction is the risk
// share of the balance (0.02 for 2%), already converted from the
// operator-facing percentage at configuration time. The result is
// floored at MinStake and rounded to cents.
func Stake(balance, fraction float64) float64 {
	amount := balance * fraction
	if amount < MinStake {
		amount = MinStake
	}
	return math.Round(amount*100) / 100
}
