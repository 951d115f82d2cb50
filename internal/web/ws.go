package web

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xaubot/xaubot/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handlePriceStream upgrades the connection and forwards ticks for the
// requested symbol until the client disconnects. Ticks the client is too
// slow to consume are dropped rather than blocking the feed.
func (s *Server) handlePriceStream(w http.ResponseWriter, r *http.Request) {
	symbol, err := domain.ParseSymbol(r.URL.Query().Get("symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ticks := make(chan domain.Tick, 16)
	unsubscribe := s.market.Subscribe(symbol, func(tick domain.Tick) {
		select {
		case ticks <- tick:
		default:
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Info("price stream opened", zap.String("symbol", string(symbol)))
	for {
		select {
		case <-done:
			s.logger.Info("price stream closed", zap.String("symbol", string(symbol)))
			return
		case tick := <-ticks:
			if err := conn.WriteJSON(tick); err != nil {
				s.logger.Warn("price stream write failed", zap.Error(err))
				return
			}
		}
	}
}
