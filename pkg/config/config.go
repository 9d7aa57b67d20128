package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Server holds controller-side settings.
type Server struct {
	Port             string
	JWTSecret        string
	OperatorPassword string
	Language         string // "en" or "zh"

	// Broker credentials forwarded to the worker.
	BrokerEmail    string
	BrokerPassword string

	DBPath        string
	TradeLogPath  string
	StopFilePath  string
	DetectorsPath string
	WorkerBinary  string
}

// LoadServer reads controller settings from the environment,
// optionally seeded from .env.
func LoadServer() (*Server, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	return &Server{
		Port:             getEnv("PORT", "8080"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret"),
		OperatorPassword: os.Getenv("OPERATOR_PASSWORD"),
		Language:         getEnv("LANGUAGE", "en"),
		BrokerEmail:      os.Getenv("QX_EMAIL"),
		BrokerPassword:   os.Getenv("QX_PASSWORD"),
		DBPath:           getEnv("DB_PATH", "./data/qbot.db"),
		TradeLogPath:     getEnv("TRADE_LOG_PATH", "trades.log"),
		StopFilePath:     getEnv("STOP_FILE_PATH", "stop.signal"),
		DetectorsPath:    getEnv("DETECTORS_PATH", "detectors.yaml"),
		WorkerBinary:     getEnv("WORKER_BINARY", "./qbot-worker"),
	}, nil
}

// HasBrokerCredentials reports whether a worker could log in.
func (s *Server) HasBrokerCredentials() bool {
	return s.BrokerEmail != "" && s.BrokerPassword != ""
}

// Run holds one worker run's settings. The controller builds it from
// an operator request, serializes it to environment variables and
// spawns the worker with them; the worker reads it once at startup.
type Run struct {
	PayoutThreshold float64  `json:"payout"`
	Assets          []string `json:"assets"`
	Timeframe       int      `json:"timeframe"` // seconds
	TradePercent    float64  `json:"trade_percent"`
	Account         string   `json:"account"` // PRACTICE | REAL
	MaxConcurrent   int      `json:"max_concurrent"`
	RunMinutes      int      `json:"run_minutes"` // 0 = unbounded
	PayoutRefresh   int      `json:"payout_refresh_min"`

	DailyProfitLimit     float64 `json:"daily_profit_limit"`
	DailyProfitIsPercent bool    `json:"daily_profit_is_percent"`
	DailyLossLimit       float64 `json:"daily_loss_limit"`
	DailyLossIsPercent   bool    `json:"daily_loss_is_percent"`
}

// DefaultRun mirrors the documented defaults.
func DefaultRun() Run {
	return Run{
		PayoutThreshold:      84,
		Timeframe:            60,
		TradePercent:         2.0,
		Account:              "PRACTICE",
		MaxConcurrent:        1,
		RunMinutes:           0,
		PayoutRefresh:        10,
		DailyProfitIsPercent: true,
		DailyLossIsPercent:   true,
	}
}

// TradeFraction converts the operator-facing percentage into the
// fraction the position sizer works with.
func (r *Run) TradeFraction() float64 {
	return r.TradePercent / 100
}

// Validate normalizes and range-checks a run configuration.
func (r *Run) Validate() error {
	r.Account = strings.ToUpper(strings.TrimSpace(r.Account))
	if r.Account != "PRACTICE" && r.Account != "REAL" {
		return fmt.Errorf("account must be PRACTICE or REAL, got %q", r.Account)
	}
	if r.PayoutThreshold < 0 || r.PayoutThreshold > 100 {
		return fmt.Errorf("payout threshold %v outside [0,100]", r.PayoutThreshold)
	}
	if r.Timeframe < 15 || r.Timeframe > 3600 {
		return fmt.Errorf("timeframe %d outside [15,3600] seconds", r.Timeframe)
	}
	if r.TradePercent < 0.5 || r.TradePercent > 15.0 {
		return fmt.Errorf("trade percent %v outside [0.5,15.0]", r.TradePercent)
	}
	if r.MaxConcurrent < 1 || r.MaxConcurrent > 10 {
		return fmt.Errorf("max concurrent %d outside [1,10]", r.MaxConcurrent)
	}
	if r.RunMinutes < 0 {
		return fmt.Errorf("run minutes %d must be >= 0", r.RunMinutes)
	}
	if r.PayoutRefresh < 1 || r.PayoutRefresh > 120 {
		return fmt.Errorf("payout refresh %d outside [1,120] minutes", r.PayoutRefresh)
	}
	if r.DailyProfitLimit < 0 || r.DailyLossLimit < 0 {
		return fmt.Errorf("daily limits must be >= 0")
	}
	return nil
}

// Env serializes the run settings as QX_* environment entries for the
// worker spawn.
func (r *Run) Env() []string {
	env := []string{
		"QX_PAYOUT=" + strconv.FormatFloat(r.PayoutThreshold, 'f', -1, 64),
		"QX_ASSETS=" + strings.Join(r.Assets, ","),
		"QX_TIMEFRAME=" + strconv.Itoa(r.Timeframe),
		"QX_TRADE_PERCENT=" + strconv.FormatFloat(r.TradePercent, 'f', -1, 64),
		"QX_ACCOUNT=" + r.Account,
		"QX_MAX_CONCURRENT=" + strconv.Itoa(r.MaxConcurrent),
		"QX_RUN_MINUTES=" + strconv.Itoa(r.RunMinutes),
		"QX_PAYOUT_REFRESH_MIN=" + strconv.Itoa(r.PayoutRefresh),
		"QX_DAILY_PROFIT=" + strconv.FormatFloat(r.DailyProfitLimit, 'f', -1, 64),
		"QX_DAILY_PROFIT_IS_PERCENT=" + boolFlag(r.DailyProfitIsPercent),
		"QX_DAILY_LOSS=" + strconv.FormatFloat(r.DailyLossLimit, 'f', -1, 64),
		"QX_DAILY_LOSS_IS_PERCENT=" + boolFlag(r.DailyLossIsPercent),
	}
	return env
}

// LoadRun reads worker run settings from the QX_* environment.
func LoadRun() (*Run, error) {
	_ = godotenv.Load()

	r := &Run{
		PayoutThreshold:      getEnvFloat("QX_PAYOUT", 84),
		Assets:               splitAndTrim(getEnv("QX_ASSETS", "")),
		Timeframe:            getEnvInt("QX_TIMEFRAME", 60),
		TradePercent:         getEnvFloat("QX_TRADE_PERCENT", 2.0),
		Account:              getEnv("QX_ACCOUNT", "PRACTICE"),
		MaxConcurrent:        getEnvInt("QX_MAX_CONCURRENT", 1),
		RunMinutes:           getEnvInt("QX_RUN_MINUTES", 0),
		PayoutRefresh:        getEnvInt("QX_PAYOUT_REFRESH_MIN", 10),
		DailyProfitLimit:     getEnvFloat("QX_DAILY_PROFIT", 0),
		DailyProfitIsPercent: getEnv("QX_DAILY_PROFIT_IS_PERCENT", "1") == "1",
		DailyLossLimit:       getEnvFloat("QX_DAILY_LOSS", 0),
		DailyLossIsPercent:   getEnv("QX_DAILY_LOSS_IS_PERCENT", "1") == "1",
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
