// Command trade_report summarizes a trade journal: win rate, P&L and
// per-asset breakdown, optionally for a single UTC day.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"qbot-core/internal/tradelog"
)

func main() {
	path := flag.String("log", "trades.log", "trade journal path")
	day := flag.String("day", "", "restrict to one UTC day (2006-01-02)")
	flag.Parse()

	records, err := tradelog.Read(*path)
	if err != nil {
		log.Fatalf("read %s: %v", *path, err)
	}
	if *day != "" {
		d, err := time.Parse("2006-01-02", *day)
		if err != nil {
			log.Fatalf("bad -day: %v", err)
		}
		records = tradelog.SameDay(records, d)
	}

	open, settled := tradelog.Split(records)
	if len(records) == 0 {
		fmt.Println("no trades recorded")
		os.Exit(0)
	}

	var wins, losses, errs int
	var pnl float64
	byAsset := map[string]float64{}
	for _, r := range settled {
		switch r.Status {
		case tradelog.StatusWon:
			wins++
		case tradelog.StatusLost:
			losses++
		default:
			errs++
		}
		pnl += r.PnL
		byAsset[r.Asset] += r.PnL
	}

	fmt.Printf("trades: %d settled, %d open\n", len(settled), len(open))
	if wins+losses > 0 {
		fmt.Printf("win rate: %.1f%% (%d won, %d lost, %d errored)\n",
			float64(wins)/float64(wins+losses)*100, wins, losses, errs)
	}
	fmt.Printf("net pnl: %+.2f\n", pnl)

	assets := make([]string, 0, len(byAsset))
	for a := range byAsset {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	for _, a := range assets {
		fmt.Printf("  %-16s %+.2f\n", a, byAsset[a])
	}
}
