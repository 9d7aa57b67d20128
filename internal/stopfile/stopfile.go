// Package stopfile implements the stop handshake between controller
// and worker: the controller drops a marker file, the worker polls for
// it at the top of every scan pass and exits cleanly when seen.
package stopfile

import (
	"fmt"
	"os"
	"time"
)

// DefaultPath is the marker location when nothing else is configured.
const DefaultPath = "stop.signal"

// Marker is a stop flag at a fixed filesystem path.
type Marker struct {
	path string
}

func New(path string) Marker {
	if path == "" {
		path = DefaultPath
	}
	return Marker{path: path}
}

func (m Marker) Path() string { return m.path }

// Set creates the marker. The content is informational only; presence
// is the signal.
func (m Marker) Set() error {
	data := fmt.Sprintf("stop requested at %s\n", time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(m.path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write stop marker: %w", err)
	}
	return nil
}

// Clear removes the marker. A missing marker is not an error, so a
// fresh start can always clear a stale one.
func (m Marker) Clear() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stop marker: %w", err)
	}
	return nil
}

// Present reports whether the marker exists.
func (m Marker) Present() bool {
	_, err := os.Stat(m.path)
	return err == nil
}
