package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"qbot-core/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// websocket streams trade journal appends and worker lifecycle changes
// to the UI.
func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if s.Bus == nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"bus not ready"}`))
		return
	}

	trades, unsubTrades := s.Bus.Subscribe(events.EventTradeRecord, 100)
	defer unsubTrades()
	status, unsubStatus := s.Bus.Subscribe(events.EventWorkerStatus, 10)
	defer unsubStatus()

	for {
		var (
			topic events.Event
			msg   any
			ok    bool
		)
		select {
		case msg, ok = <-trades:
			topic = events.EventTradeRecord
		case msg, ok = <-status:
			topic = events.EventWorkerStatus
		case <-c.Request.Context().Done():
			return
		}
		if !ok {
			return
		}
		if err := conn.WriteJSON(gin.H{"event": topic, "data": msg}); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}
