// Package tradelog is the append-only JSONL journal of every trade the
// bot places. The worker appends, the control API and report tooling
// read. Records are never rewritten; settlement appends a second line
// with the terminal status for the same trade id.
package tradelog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Trade statuses. A trade opens as StatusActive and later gets a
// trailing terminal record.
const (
	StatusActive  = "active"
	StatusWon     = "won"
	StatusLost    = "lost"
	StatusError   = "error"
	StatusExpired = "expired"
)

// Record is one journal line.
type Record struct {
	ID        string  `json:"id"`
	Strategy  string  `json:"strategy"`
	Timestamp string  `json:"timestamp"`
	Asset     string  `json:"asset"`
	Direction string  `json:"direction"`
	Amount    float64 `json:"amount"`
	Duration  int     `json:"duration"`
	Status    string  `json:"status"`
	PnL       float64 `json:"pnl"`
}

// Terminal reports whether the record closes its trade.
func (r Record) Terminal() bool {
	return r.Status != StatusActive
}

// Stamp sets the timestamp to now in the journal's UTC ISO format.
func (r *Record) Stamp(now time.Time) {
	r.Timestamp = now.UTC().Format("2006-01-02T15:04:05.000000")
}

// Writer appends records to the journal file, one JSON object per
// line, flushed through to disk on every append so a killed worker
// never loses settled trades.
type Writer struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trade log: %w", err)
	}
	return &Writer{f: f, path: path}, nil
}

func (w *Writer) Append(r Record) error {
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode trade record: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append trade record: %w", err)
	}
	return w.f.Sync()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// Read loads every parsable record from the journal at path. Malformed
// lines are skipped; a journal truncated mid-line must not take the
// readers down with it. A missing file reads as empty.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open trade log: %w", err)
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var r Record
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			continue
		}
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("scan trade log: %w", err)
	}
	return out, nil
}

// SameDay filters records to the given UTC day by string-prefix match
// on the ISO timestamp.
func SameDay(records []Record, day time.Time) []Record {
	prefix := day.UTC().Format("2006-01-02")
	var out []Record
	for _, r := range records {
		if strings.HasPrefix(r.Timestamp, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// Split partitions records into still-open trades and terminal ones.
// A trade with a later terminal record is not open, regardless of how
// many active lines precede it.
func Split(records []Record) (open []Record, settled []Record) {
	closed := make(map[string]bool)
	for _, r := range records {
		if r.Terminal() {
			closed[r.ID] = true
			settled = append(settled, r)
		}
	}
	seen := make(map[string]bool)
	for _, r := range records {
		if r.Terminal() || closed[r.ID] || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		open = append(open, r)
	}
	return open, settled
}

// DayPnL sums realized P&L over the terminal records of the given UTC
// day.
func DayPnL(records []Record, day time.Time) float64 {
	var total float64
	for _, r := range SameDay(records, day) {
		if r.Terminal() {
			total += r.PnL
		}
	}
	return total
}
