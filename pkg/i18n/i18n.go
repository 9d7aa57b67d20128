package i18n

import (
	"reflect"
	"sync"
)

// Language type
type Language string

const (
	LangEN Language = "en"
	LangZH Language = "zh"
)

// Messages holds all translatable strings
type Messages struct {
	// System
	Starting         string
	ConfigLoaded     string
	UsingDBPath      string
	ServerListening  string
	ShuttingDown     string
	ConfigLoadFailed string
	DBInitFailed     string
	APIServerError   string

	// Worker lifecycle
	WorkerStarting      string
	WorkerStarted       string
	WorkerAlreadyAlive  string
	WorkerNotRunning    string
	WorkerMissingCreds  string
	WorkerSpawnFailed   string
	WorkerStopRequested string
	WorkerExited        string
	WorkerKilled        string
	StaleStopMarker     string

	// Trading
	ConnectingBroker    string
	BrokerConnected     string
	BrokerConnectFailed string
	BalanceFetched      string
	AssetsFiltered      string
	NoTradableAssets    string
	SignalDetected      string
	TradePlaced         string
	TradeRejected       string
	TradeSettled        string
	MarketClosedSkip    string
	AwaitingCandleClose string

	// Risk
	RiskHalt            string
	RunDurationElapsed  string
	RiskMetricsPersist  string

	// Trade log
	TradeLogOpenFailed  string
	TradeLogReadFailed  string
}

var (
	currentLang Language = LangEN
	mu          sync.RWMutex
	messages    *Messages
)

// English messages
var messagesEN = Messages{
	// System
	Starting:         "Starting QBot control server...",
	ConfigLoaded:     "Config loaded (Port: %s)",
	UsingDBPath:      "Using DB path: %s",
	ServerListening:  "Server listening on :%s",
	ShuttingDown:     "Shutting down gracefully...",
	ConfigLoadFailed: "Failed to load config: %v",
	DBInitFailed:     "Failed to init database: %v",
	APIServerError:   "API server error: %v",

	// Worker lifecycle
	WorkerStarting:      "Starting worker (account=%s timeframe=%ds)...",
	WorkerStarted:       "Worker started, pid %d",
	WorkerAlreadyAlive:  "A worker is already running",
	WorkerNotRunning:    "No worker is running",
	WorkerMissingCreds:  "Broker credentials missing, refusing to start",
	WorkerSpawnFailed:   "Failed to spawn worker: %v",
	WorkerStopRequested: "Stop requested, waiting %s for the worker to exit",
	WorkerExited:        "Worker exited (code %d)",
	WorkerKilled:        "Worker did not stop in time, terminated",
	StaleStopMarker:     "Clearing stale stop marker at %s",

	// Trading
	ConnectingBroker:    "Connecting to broker (%s account)...",
	BrokerConnected:     "Broker connected",
	BrokerConnectFailed: "Broker connection failed: %v",
	BalanceFetched:      "Balance: %.2f",
	AssetsFiltered:      "%d of %d assets at or above %.1f%% payout",
	NoTradableAssets:    "No tradable assets this pass",
	SignalDetected:      "%s signal: %s on %s",
	TradePlaced:         "Trade placed: %s %s stake=%.2f id=%s",
	TradeRejected:       "Trade rejected on %s: %v",
	TradeSettled:        "Trade %s settled: %s pnl=%.2f",
	MarketClosedSkip:    "%s market closed, cooling down",
	AwaitingCandleClose: "Waiting %s for candle close",

	// Risk
	RiskHalt:           "Risk guard halt: %s",
	RunDurationElapsed: "Run duration elapsed, stopping",
	RiskMetricsPersist: "Failed to persist risk metrics: %v",

	// Trade log
	TradeLogOpenFailed: "Failed to open trade log: %v",
	TradeLogReadFailed: "Failed to read trade log: %v",
}

// Chinese messages
var messagesZH = Messages{
	// System
	Starting:         "啟動 QBot 控制伺服器...",
	ConfigLoaded:     "設定已載入（埠號：%s）",
	UsingDBPath:      "使用資料庫路徑：%s",
	ServerListening:  "服務監聽於 :%s",
	ShuttingDown:     "正在優雅關閉...",
	ConfigLoadFailed: "讀取設定失敗：%v",
	DBInitFailed:     "初始化資料庫失敗：%v",
	APIServerError:   "API 伺服器錯誤：%v",

	// Worker lifecycle
	WorkerStarting:      "啟動交易程序（帳戶=%s 週期=%d 秒）...",
	WorkerStarted:       "交易程序已啟動，pid %d",
	WorkerAlreadyAlive:  "交易程序已在執行中",
	WorkerNotRunning:    "沒有執行中的交易程序",
	WorkerMissingCreds:  "缺少券商帳密，拒絕啟動",
	WorkerSpawnFailed:   "啟動交易程序失敗：%v",
	WorkerStopRequested: "已要求停止，等待 %s 讓程序自行結束",
	WorkerExited:        "交易程序已結束（代碼 %d）",
	WorkerKilled:        "交易程序未及時停止，已強制終止",
	StaleStopMarker:     "清除殘留的停止檔 %s",

	// Trading
	ConnectingBroker:    "連線券商中（%s 帳戶）...",
	BrokerConnected:     "券商已連線",
	BrokerConnectFailed: "券商連線失敗：%v",
	BalanceFetched:      "餘額：%.2f",
	AssetsFiltered:      "%d / %d 個資產的賠率達到 %.1f%%",
	NoTradableAssets:    "本輪沒有可交易的資產",
	SignalDetected:      "%s 訊號：%s 於 %s",
	TradePlaced:         "已下單：%s %s 金額=%.2f 編號=%s",
	TradeRejected:       "下單遭拒 %s：%v",
	TradeSettled:        "交易 %s 已結算：%s 損益=%.2f",
	MarketClosedSkip:    "%s 市場休市，暫時跳過",
	AwaitingCandleClose: "等待 %s 至 K 線收盤",

	// Risk
	RiskHalt:           "風控停止：%s",
	RunDurationElapsed: "已達設定執行時間，停止",
	RiskMetricsPersist: "寫入風控指標失敗：%v",

	// Trade log
	TradeLogOpenFailed: "開啟交易日誌失敗：%v",
	TradeLogReadFailed: "讀取交易日誌失敗：%v",
}

func init() {
	messages = &messagesEN
}

// SetLanguage sets the current language
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()

	currentLang = lang
	switch lang {
	case LangZH:
		messages = &messagesZH
	default:
		messages = &messagesEN
	}
}

// GetLanguage returns the current language
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return currentLang
}

// M returns the current messages
func M() *Messages {
	mu.RLock()
	defer mu.RUnlock()
	return messages
}

// Get returns specific message by key dynamically using reflection
func Get(key string) string {
	msg := M()
	v := reflect.ValueOf(msg).Elem()
	f := v.FieldByName(key)
	if f.IsValid() && f.Kind() == reflect.String {
		return f.String()
	}
	return key
}
