package events

import (
	"context"
	"log"
	"time"

	"qbot-core/internal/tradelog"
)

// Follower tails the trade journal the worker appends to and publishes
// each new record on the bus. The worker process cannot push to the
// controller directly, so the journal doubles as the notification
// channel.
type Follower struct {
	bus      *Bus
	path     string
	interval time.Duration
	offset   int
}

func NewFollower(bus *Bus, path string, interval time.Duration) *Follower {
	if interval <= 0 {
		interval = time.Second
	}
	return &Follower{bus: bus, path: path, interval: interval}
}

// Run polls the journal until ctx is canceled. Records already present
// at startup are skipped; only new appends are published.
func (f *Follower) Run(ctx context.Context) {
	if records, err := tradelog.Read(f.path); err == nil {
		f.offset = len(records)
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.poll()
		}
	}
}

func (f *Follower) poll() {
	records, err := tradelog.Read(f.path)
	if err != nil {
		log.Printf("events: trade log follow: %v", err)
		return
	}
	if len(records) < f.offset {
		// Journal replaced or truncated, start over.
		f.offset = 0
	}
	for _, r := range records[f.offset:] {
		f.bus.Publish(EventTradeRecord, TradeRecordEvent{Record: r})
	}
	f.offset = len(records)
}
