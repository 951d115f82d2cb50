package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xaubot/xaubot/internal/domain"
	"github.com/xaubot/xaubot/internal/usecase"
)

type openPositionRequest struct {
	UserID     int64            `json:"user_id"`
	Symbol     string           `json:"symbol"`
	Side       string           `json:"side"`
	Size       decimal.Decimal  `json:"size"`
	EntryPrice decimal.Decimal  `json:"entry_price"`
	StopLoss   *decimal.Decimal `json:"stop_loss,omitempty"`
	TakeProfit *decimal.Decimal `json:"take_profit,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}

func (s *Server) handleOpenPosition(w http.ResponseWriter, r *http.Request) {
	var req openPositionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	symbol, err := domain.ParseSymbol(req.Symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}

	position, err := s.trading.OpenPosition(r.Context(), usecase.OpenPositionParams{
		UserID:     req.UserID,
		Symbol:     symbol,
		Side:       domain.Side(req.Side),
		Size:       req.Size,
		EntryPrice: req.EntryPrice,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Notes:      req.Notes,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, position)
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if rawUser := q.Get("user_id"); rawUser != "" {
		userID, err := strconv.ParseInt(rawUser, 10, 64)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: user_id must be an integer", domain.ErrInvalidParameter))
			return
		}
		positions, err := s.trading.ListUserPositions(r.Context(), userID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, positions)
		return
	}

	if q.Get("status") == "open" {
		positions, err := s.trading.ListOpenPositions(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, positions)
		return
	}

	positions, err := s.trading.ListPositions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	position, err := s.trading.GetPosition(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, position)
}

func (s *Server) handleClosePosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExitPrice decimal.Decimal `json:"exit_price"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	position, err := s.trading.ClosePosition(r.Context(), r.PathValue("id"), req.ExitPrice)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, position)
}

func (s *Server) handleCancelPosition(w http.ResponseWriter, r *http.Request) {
	position, err := s.trading.CancelPosition(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, position)
}

func (s *Server) handleUpdateStopLoss(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StopLoss decimal.Decimal `json:"stop_loss"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	position, err := s.trading.UpdateStopLoss(r.Context(), r.PathValue("id"), req.StopLoss)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, position)
}

func (s *Server) handleUpdateTakeProfit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TakeProfit decimal.Decimal `json:"take_profit"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	position, err := s.trading.UpdateTakeProfit(r.Context(), r.PathValue("id"), req.TakeProfit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, position)
}

func (s *Server) handlePositionRisk(w http.ResponseWriter, r *http.Request) {
	position, err := s.trading.GetPosition(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	assessment, err := s.risk.AssessPosition(r.Context(), position)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, assessment)
}

func (s *Server) handleMaxPositionSize(w http.ResponseWriter, r *http.Request) {
	symbol, err := domain.ParseSymbol(r.URL.Query().Get("symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	riskPercent, err := parseDecimalQuery(r, "risk_percent")
	if err != nil {
		s.writeError(w, err)
		return
	}

	size, err := s.risk.MaxPositionSize(r.Context(), symbol, riskPercent)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"max_position_size": size})
}

func (s *Server) handlePortfolioReport(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	report, err := s.risk.PortfolioReport(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExposure(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	exposure, err := s.risk.ExposureBySymbol(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, exposure)
}

func (s *Server) handleEvaluateSignal(w http.ResponseWriter, r *http.Request) {
	symbol, err := domain.ParseSymbol(r.PathValue("symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	params := usecase.DefaultStrategyParams()
	if err := overridePeriods(r, &params); err != nil {
		s.writeError(w, err)
		return
	}

	strategy, err := usecase.NewMovingAverageStrategy(params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Twice the slow window gives the SMAs room to settle.
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -2*params.SlowPeriod)
	candles, err := s.market.History(r.Context(), symbol, from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}

	currentPrice, err := s.market.CurrentPrice(r.Context(), symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}

	signal, err := strategy.Evaluate(symbol, candles, currentPrice)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, signal)
}

type backtestRequest struct {
	Symbol         string           `json:"symbol"`
	FastPeriod     int              `json:"fast_period"`
	SlowPeriod     int              `json:"slow_period"`
	Days           int              `json:"days"`
	InitialBalance *decimal.Decimal `json:"initial_balance,omitempty"`
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	symbol, err := domain.ParseSymbol(req.Symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}

	params := usecase.DefaultStrategyParams()
	if req.FastPeriod != 0 {
		params.FastPeriod = req.FastPeriod
	}
	if req.SlowPeriod != 0 {
		params.SlowPeriod = req.SlowPeriod
	}

	days := req.Days
	if days <= 0 {
		days = 365
	}
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)
	candles, err := s.market.History(r.Context(), symbol, from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}

	cfg := s.backtestCfg
	if req.InitialBalance != nil {
		cfg.InitialBalance = *req.InitialBalance
	}
	result, err := usecase.NewBacktestRunner(cfg).Run(symbol, candles, params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func overridePeriods(r *http.Request, params *usecase.StrategyParams) error {
	q := r.URL.Query()
	for name, dst := range map[string]*int{"fast": &params.FastPeriod, "slow": &params.SlowPeriod} {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidParameter, name)
			}
			*dst = v
		}
	}
	return nil
}

func parseUserID(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return 0, fmt.Errorf("%w: missing query parameter \"user_id\"", domain.ErrInvalidParameter)
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: user_id must be an integer", domain.ErrInvalidParameter)
	}
	return userID, nil
}
