// Package assets selects the tradable subset of the configured asset
// list by current broker payout.
package assets

import (
	"context"
	"log"

	"qbot-core/internal/broker"
)

// Filter returns the assets whose payout meets minPayout, preserving
// the order of the input list. Per-asset quote errors only drop that
// asset; the broker staying reachable for the rest is the common case.
func Filter(ctx context.Context, client broker.Client, list []string, minPayout float64) []string {
	out := make([]string, 0, len(list))
	for _, asset := range list {
		p, err := client.Payout(ctx, asset)
		if err != nil {
			log.Printf("assets: payout quote for %s failed: %v", asset, err)
			continue
		}
		if pct := p.Percent(); pct >= minPayout {
			out = append(out, asset)
		} else {
			log.Printf("assets: %s payout %.1f below threshold %.1f", asset, pct, minPayout)
		}
	}
	return out
}
