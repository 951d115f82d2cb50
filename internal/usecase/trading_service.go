package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xaubot/xaubot/internal/domain"
)

// OpenPositionParams carries everything needed to open a position.
// StopLoss and TakeProfit stay nil when the caller sets no levels.
type OpenPositionParams struct {
	UserID     int64
	Symbol     domain.Symbol
	Side       domain.Side
	Size       decimal.Decimal
	EntryPrice decimal.Decimal
	StopLoss   *decimal.Decimal
	TakeProfit *decimal.Decimal
	Notes      string
}

// TradingService owns the position lifecycle against the injected store.
type TradingService struct {
	positions domain.PositionRepository
	logger    *zap.Logger
}

func NewTradingService(positions domain.PositionRepository, logger *zap.Logger) *TradingService {
	return &TradingService{positions: positions, logger: logger}
}

// OpenPosition validates the order and persists a new open position.
func (s *TradingService) OpenPosition(ctx context.Context, params OpenPositionParams) (*domain.Position, error) {
	if !params.Size.IsPositive() {
		return nil, fmt.Errorf("%w: size must be greater than zero", domain.ErrInvalidParameter)
	}
	if !params.EntryPrice.IsPositive() {
		return nil, fmt.Errorf("%w: entry price must be greater than zero", domain.ErrInvalidParameter)
	}
	if params.Side != domain.SideLong && params.Side != domain.SideShort {
		return nil, fmt.Errorf("%w: unknown side %q", domain.ErrInvalidParameter, params.Side)
	}
	if err := domain.ValidateProtectiveLevels(params.Side, params.EntryPrice, params.StopLoss, params.TakeProfit); err != nil {
		return nil, err
	}

	position := &domain.Position{
		UserID:     params.UserID,
		Symbol:     params.Symbol,
		Side:       params.Side,
		Size:       params.Size,
		EntryPrice: params.EntryPrice,
		StopLoss:   params.StopLoss,
		TakeProfit: params.TakeProfit,
		Status:     domain.StatusOpen,
		OpenTime:   time.Now().UTC(),
		Notes:      params.Notes,
	}
	if err := s.positions.Create(ctx, position); err != nil {
		return nil, err
	}

	s.logger.Info("position opened",
		zap.String("id", position.ID),
		zap.String("symbol", string(position.Symbol)),
		zap.String("side", string(position.Side)),
		zap.String("entry_price", position.EntryPrice.String()))
	return position, nil
}

// ClosePosition realizes the position at exitPrice. Only open positions
// can be closed; the profit/loss is fixed from this point on.
func (s *TradingService) ClosePosition(ctx context.Context, id string, exitPrice decimal.Decimal) (*domain.Position, error) {
	if !exitPrice.IsPositive() {
		return nil, fmt.Errorf("%w: exit price must be greater than zero", domain.ErrInvalidParameter)
	}

	position, err := s.positions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if position.Status != domain.StatusOpen {
		return nil, fmt.Errorf("%w: position %s is not open", domain.ErrInvalidState, id)
	}

	position.Close(exitPrice, time.Now().UTC())
	if err := s.positions.Update(ctx, position); err != nil {
		return nil, err
	}

	if pl := position.ProfitLoss(); pl != nil {
		s.logger.Info("position closed",
			zap.String("id", position.ID),
			zap.String("exit_price", exitPrice.String()),
			zap.String("profit_loss", pl.String()))
	}
	return position, nil
}

// CancelPosition voids an open or pending position without an exit price.
func (s *TradingService) CancelPosition(ctx context.Context, id string) (*domain.Position, error) {
	position, err := s.positions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if position.Status != domain.StatusOpen && position.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: position %s cannot be cancelled", domain.ErrInvalidState, id)
	}

	position.Cancel(time.Now().UTC())
	if err := s.positions.Update(ctx, position); err != nil {
		return nil, err
	}
	s.logger.Info("position cancelled", zap.String("id", position.ID))
	return position, nil
}

// UpdateStopLoss moves the stop of an open position, keeping it on the
// protective side of the entry.
func (s *TradingService) UpdateStopLoss(ctx context.Context, id string, stopLoss decimal.Decimal) (*domain.Position, error) {
	if !stopLoss.IsPositive() {
		return nil, fmt.Errorf("%w: stop loss must be greater than zero", domain.ErrInvalidParameter)
	}

	position, err := s.positions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if position.Status != domain.StatusOpen {
		return nil, fmt.Errorf("%w: position %s is not open", domain.ErrInvalidState, id)
	}
	if err := domain.ValidateProtectiveLevels(position.Side, position.EntryPrice, &stopLoss, nil); err != nil {
		return nil, err
	}

	position.StopLoss = &stopLoss
	if err := s.positions.Update(ctx, position); err != nil {
		return nil, err
	}
	return position, nil
}

// UpdateTakeProfit moves the take-profit of an open position.
func (s *TradingService) UpdateTakeProfit(ctx context.Context, id string, takeProfit decimal.Decimal) (*domain.Position, error) {
	if !takeProfit.IsPositive() {
		return nil, fmt.Errorf("%w: take profit must be greater than zero", domain.ErrInvalidParameter)
	}

	position, err := s.positions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if position.Status != domain.StatusOpen {
		return nil, fmt.Errorf("%w: position %s is not open", domain.ErrInvalidState, id)
	}
	if err := domain.ValidateProtectiveLevels(position.Side, position.EntryPrice, nil, &takeProfit); err != nil {
		return nil, err
	}

	position.TakeProfit = &takeProfit
	if err := s.positions.Update(ctx, position); err != nil {
		return nil, err
	}
	return position, nil
}

func (s *TradingService) GetPosition(ctx context.Context, id string) (*domain.Position, error) {
	return s.positions.Get(ctx, id)
}

func (s *TradingService) ListPositions(ctx context.Context) ([]*domain.Position, error) {
	return s.positions.List(ctx)
}

func (s *TradingService) ListUserPositions(ctx context.Context, userID int64) ([]*domain.Position, error) {
	return s.positions.ListByUser(ctx, userID)
}

func (s *TradingService) ListOpenPositions(ctx context.Context) ([]*domain.Position, error) {
	return s.positions.ListByStatus(ctx, domain.StatusOpen)
}

// TotalProfitLoss sums the realized results of a user's closed positions.
func (s *TradingService) TotalProfitLoss(ctx context.Context, userID int64) (decimal.Decimal, error) {
	positions, err := s.positions.ListByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, p := range positions {
		if pl := p.ProfitLoss(); pl != nil {
			total = total.Add(*pl)
		}
	}
	return total, nil
}

// CurrentExposure sums size*entry over the user's open positions,
// optionally restricted to one symbol.
func (s *TradingService) CurrentExposure(ctx context.Context, userID int64, symbol *domain.Symbol) (decimal.Decimal, error) {
	positions, err := s.positions.ListByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, p := range positions {
		if p.Status != domain.StatusOpen {
			continue
		}
		if symbol != nil && p.Symbol != *symbol {
			continue
		}
		total = total.Add(p.Size.Mul(p.EntryPrice))
	}
	return total, nil
}
