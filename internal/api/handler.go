package api

import (
	"context"
	"net/http"
	"time"

	"qbot-core/internal/events"
	"qbot-core/internal/supervisor"
	"qbot-core/pkg/config"
	"qbot-core/pkg/db"

	"github.com/gin-gonic/gin"
)

// WorkerSupervisor is the slice of the supervisor the API needs.
type WorkerSupervisor interface {
	Start(config.Run) error
	Stop() error
	Status() supervisor.Status
}

// AssetRefresher connects to the broker and returns the assets whose
// payout meets the threshold.
type AssetRefresher func(ctx context.Context, payout float64) ([]string, error)

// Server wires the control HTTP endpoints around the supervisor and
// the event bus.
type Server struct {
	Router       *gin.Engine
	Bus          *events.Bus
	DB           *db.Database
	Sup          WorkerSupervisor
	Refresh      AssetRefresher
	TradeLogPath string
	JWTSecret    string
	OperatorPass string
}

func NewServer(sup WorkerSupervisor, bus *events.Bus, database *db.Database, refresh AssetRefresher, tradeLogPath, jwtSecret, operatorPass string) *Server {
	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger())
	r.Use(RateLimitMiddleware())
	r.Use(TimeoutMiddleware(30 * time.Second))
	r.Use(CORSMiddleware())

	s := &Server{
		Router:       r,
		Bus:          bus,
		DB:           database,
		Sup:          sup,
		Refresh:      refresh,
		TradeLogPath: tradeLogPath,
		JWTSecret:    jwtSecret,
		OperatorPass: operatorPass,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	{
		api.POST("/auth/login", s.login)

		protected := api.Group("")
		protected.Use(AuthMiddleware(s.JWTSecret))
		{
			protected.POST("/start", s.startWorker)
			protected.POST("/stop", s.stopWorker)
			protected.GET("/status", s.workerStatus)
			protected.GET("/trade_logs", s.tradeLogs)
			protected.GET("/trades", s.settledTrades)
			protected.GET("/initial_data", s.initialData)
			protected.GET("/refresh_assets", s.refreshAssets)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
