package strategy

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents one detector entry in detectors.yaml.
type Config struct {
	Type       string         `yaml:"type"`
	Enabled    bool           `yaml:"enabled"`
	Parameters map[string]any `yaml:"parameters"`
}

// ConfigFile represents the top-level YAML structure.
type ConfigFile struct {
	Detectors []Config `yaml:"detectors"`
}

// LoadConfig reads detector configuration from a YAML file.
func LoadConfig(path string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	return file.Detectors, nil
}

// DefaultConfig is the detector set used when no detectors.yaml exists:
// the breakout and engulfing detectors enabled, bollinger break off.
func DefaultConfig() []Config {
	return []Config{
		{Type: "breakout", Enabled: true},
		{Type: "engulfing", Enabled: true},
		{Type: "bollinger_break", Enabled: false},
	}
}

// Build instantiates the enabled detectors from configuration entries.
// Unknown detector types are logged and skipped.
func Build(configs []Config) []Detector {
	var detectors []Detector
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		switch cfg.Type {
		case "breakout":
			detectors = append(detectors, NewBreakoutDetector())
		case "engulfing":
			detectors = append(detectors, NewEngulfingDetector())
		case "bollinger_break":
			period := paramInt(cfg.Parameters, "period", 14)
			deviation := paramFloat(cfg.Parameters, "deviation", 1.0)
			detectors = append(detectors, NewBollingerBreakDetector(period, deviation))
		default:
			log.Printf("unknown detector type: %s", cfg.Type)
		}
	}
	return detectors
}

func paramInt(params map[string]any, key string, def int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return def
}

func paramFloat(params map[string]any, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}
