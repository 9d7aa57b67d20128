package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"qbot-core/internal/supervisor"
	"qbot-core/internal/tradelog"
	"qbot-core/pkg/config"
	"qbot-core/pkg/i18n"

	"github.com/gin-gonic/gin"
)

// startWorker validates the requested run settings and spawns the
// worker with them.
func (s *Server) startWorker(c *gin.Context) {
	settings := config.DefaultRun()
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": err.Error(),
		})
		return
	}

	err := s.Sup.Start(settings)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, supervisor.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{
			"code":  "ALREADY_RUNNING",
			"error": "bot already running",
		})
	case errors.Is(err, supervisor.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "MISSING_CREDENTIALS",
			"error": "missing QX_EMAIL and QX_PASSWORD",
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_SETTINGS",
			"error": err.Error(),
		})
	}
}

// stopWorker asks the running worker to stop.
func (s *Server) stopWorker(c *gin.Context) {
	err := s.Sup.Stop()
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, supervisor.ErrNotRunning):
		c.JSON(http.StatusConflict, gin.H{
			"code":  "NOT_RUNNING",
			"error": "no worker running",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "STOP_FAILED",
			"error": err.Error(),
		})
	}
}

// workerStatus reports worker liveness and the last run settings.
func (s *Server) workerStatus(c *gin.Context) {
	st := s.Sup.Status()
	c.JSON(http.StatusOK, gin.H{
		"running":  st.Running,
		"pid":      st.PID,
		"settings": st.Settings,
	})
}

// tradeLogView is the journal split for the UI.
type tradeLogView struct {
	ActiveTrades []tradelog.Record `json:"active_trades"`
	TradeHistory []tradelog.Record `json:"trade_history"`
	DailyPnL     float64           `json:"daily_pnl"`
}

func (s *Server) readTradeLog() (tradeLogView, error) {
	records, err := tradelog.Read(s.TradeLogPath)
	if err != nil {
		log.Printf(i18n.Get("TradeLogReadFailed"), err)
		return tradeLogView{}, err
	}
	open, settled := tradelog.Split(records)
	view := tradeLogView{
		ActiveTrades: open,
		TradeHistory: settled,
		DailyPnL:     tradelog.DayPnL(records, time.Now().UTC()),
	}
	if view.ActiveTrades == nil {
		view.ActiveTrades = []tradelog.Record{}
	}
	if view.TradeHistory == nil {
		view.TradeHistory = []tradelog.Record{}
	}
	return view, nil
}

// tradeLogs serves the journal split into open and settled trades plus
// the running total for the current UTC day.
func (s *Server) tradeLogs(c *gin.Context) {
	view, err := s.readTradeLog()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "TRADE_LOG_ERROR",
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, view)
}

// settledTrades serves the durable SQLite copy of trade history.
func (s *Server) settledTrades(c *gin.Context) {
	if s.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":  "DB_DISABLED",
			"error": "database not configured",
		})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	trades, err := s.DB.Queries().ListTrades(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "DB_ERROR",
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

// initialData bootstraps the UI with status and journal in one call.
func (s *Server) initialData(c *gin.Context) {
	view, err := s.readTradeLog()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "TRADE_LOG_ERROR",
			"error": err.Error(),
		})
		return
	}
	st := s.Sup.Status()
	c.JSON(http.StatusOK, gin.H{
		"status": gin.H{
			"running":  st.Running,
			"pid":      st.PID,
			"settings": st.Settings,
		},
		"trade_logs": view,
	})
}

// refreshAssets connects to the broker and re-runs the payout filter
// on demand.
func (s *Server) refreshAssets(c *gin.Context) {
	if s.Refresh == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":  "REFRESH_DISABLED",
			"error": "asset refresh not configured",
		})
		return
	}
	payout, err := strconv.ParseFloat(c.DefaultQuery("payout", "84"), 64)
	if err != nil || payout < 0 || payout > 100 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYOUT",
			"error": "payout must be a number in [0,100]",
		})
		return
	}
	list, err := s.Refresh(c.Request.Context(), payout)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "REFRESH_FAILED",
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": list})
}
