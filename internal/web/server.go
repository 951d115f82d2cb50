package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xaubot/xaubot/internal/domain"
	"github.com/xaubot/xaubot/internal/usecase"
)

// Server exposes the trading core over HTTP. It owns no business logic:
// every handler validates input, calls a service and writes JSON.
type Server struct {
	router  *http.ServeMux
	server  *http.Server
	trading *usecase.TradingService
	risk    *usecase.RiskService
	market  domain.MarketData
	logger  *zap.Logger

	backtestCfg usecase.BacktestConfig
}

func NewServer(
	port int,
	trading *usecase.TradingService,
	risk *usecase.RiskService,
	market domain.MarketData,
	backtestCfg usecase.BacktestConfig,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:      http.NewServeMux(),
		trading:     trading,
		risk:        risk,
		market:      market,
		backtestCfg: backtestCfg,
		logger:      logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /health", s.handleHealth)

	// Positions
	s.router.HandleFunc("GET /positions", s.handleListPositions)
	s.router.HandleFunc("POST /positions", s.handleOpenPosition)
	s.router.HandleFunc("GET /positions/{id}", s.handleGetPosition)
	s.router.HandleFunc("POST /positions/{id}/close", s.handleClosePosition)
	s.router.HandleFunc("POST /positions/{id}/cancel", s.handleCancelPosition)
	s.router.HandleFunc("PUT /positions/{id}/stop-loss", s.handleUpdateStopLoss)
	s.router.HandleFunc("PUT /positions/{id}/take-profit", s.handleUpdateTakeProfit)
	s.router.HandleFunc("GET /positions/{id}/risk", s.handlePositionRisk)

	// Risk
	s.router.HandleFunc("GET /risk/max-position-size", s.handleMaxPositionSize)
	s.router.HandleFunc("GET /risk/portfolio", s.handlePortfolioReport)
	s.router.HandleFunc("GET /risk/exposure", s.handleExposure)

	// Strategy
	s.router.HandleFunc("GET /signals/{symbol}", s.handleEvaluateSignal)
	s.router.HandleFunc("POST /backtest", s.handleBacktest)

	// Market data
	s.router.HandleFunc("GET /quotes/{symbol}", s.handleQuote)
	s.router.HandleFunc("GET /ws/prices", s.handlePriceStream)
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol, err := domain.ParseSymbol(r.PathValue("symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	quote, err := s.market.Quote(r.Context(), symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, quote)
}

// parseDecimalQuery reads a required decimal query parameter.
func parseDecimalQuery(r *http.Request, name string) (decimal.Decimal, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: missing query parameter %q", domain.ErrInvalidParameter, name)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidParameter, name)
	}
	return d, nil
}
