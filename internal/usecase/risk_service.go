package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xaubot/xaubot/internal/domain"
)

// maxStopRiskFraction is the per-position stop-loss risk the platform
// still considers healthy: 2% of entry.
var maxStopRiskFraction = decimal.NewFromFloat(0.02)

// RiskService derives risk figures from positions and current prices.
// It never mutates the store; every calculation works on copies.
type RiskService struct {
	positions    domain.PositionRepository
	market       domain.MarketData
	accountValue decimal.Decimal
	logger       *zap.Logger
}

func NewRiskService(positions domain.PositionRepository, market domain.MarketData, accountValue decimal.Decimal, logger *zap.Logger) *RiskService {
	if !accountValue.IsPositive() {
		accountValue = decimal.NewFromInt(10000)
	}
	return &RiskService{
		positions:    positions,
		market:       market,
		accountValue: accountValue,
		logger:       logger,
	}
}

// AssessPosition produces the full risk picture of one open position at
// the current market price. Non-open positions have no live risk.
func (s *RiskService) AssessPosition(ctx context.Context, position *domain.Position) (*domain.RiskAssessment, error) {
	if position == nil {
		return nil, fmt.Errorf("%w: position is nil", domain.ErrInvalidParameter)
	}
	if position.Status != domain.StatusOpen {
		return nil, fmt.Errorf("%w: can only calculate risk for open positions", domain.ErrInvalidState)
	}

	currentPrice, err := s.market.CurrentPrice(ctx, position.Symbol)
	if err != nil {
		return nil, err
	}
	return AssessPositionAt(position, currentPrice)
}

// AssessPositionAt is the pure core of the assessment: all inputs are
// explicit, so it can be called concurrently and is trivially testable.
func AssessPositionAt(position *domain.Position, currentPrice decimal.Decimal) (*domain.RiskAssessment, error) {
	if position.Status != domain.StatusOpen {
		return nil, fmt.Errorf("%w: can only calculate risk for open positions", domain.ErrInvalidState)
	}

	hundred := decimal.NewFromInt(100)
	profitLoss := position.CurrentProfitLoss(currentPrice)

	profitLossPercent := decimal.Zero
	if notional := position.EntryPrice.Mul(position.Size); !notional.IsZero() {
		profitLossPercent = profitLoss.Div(notional).Mul(hundred)
	}

	// Stop-loss risk as a fraction of entry; a position without a stop
	// carries its full size at risk.
	stopRisk := decimal.NewFromInt(1)
	maxLoss := position.Size
	if position.StopLoss != nil && !position.EntryPrice.IsZero() {
		stopRisk = position.StopLoss.Sub(position.EntryPrice).Abs().Div(position.EntryPrice)
		maxLoss = stopRisk.Mul(position.Size)
	}

	var riskReward *decimal.Decimal
	if position.StopLoss != nil && position.TakeProfit != nil {
		potentialLoss := position.EntryPrice.Sub(*position.StopLoss).Abs()
		potentialGain := position.TakeProfit.Sub(position.EntryPrice).Abs()
		if potentialLoss.IsPositive() {
			rr := potentialGain.Div(potentialLoss)
			riskReward = &rr
		}
	}

	return &domain.RiskAssessment{
		PositionID:               position.ID,
		Symbol:                   position.Symbol,
		CurrentPrice:             currentPrice,
		EntryPrice:               position.EntryPrice,
		StopLoss:                 position.StopLoss,
		TakeProfit:               position.TakeProfit,
		PositionSize:             position.Size,
		CurrentProfitLoss:        profitLoss,
		CurrentProfitLossPercent: profitLossPercent,
		StopLossRiskPercent:      stopRisk.Mul(hundred),
		MaxLossAmount:            maxLoss,
		RiskRewardRatio:          riskReward,
		IsWithinRiskLimits:       stopRisk.LessThanOrEqual(maxStopRiskFraction),
	}, nil
}

// MaxPositionSize returns the largest quantity that keeps the loss at an
// assumed 2% stop within riskPercent of the account.
func (s *RiskService) MaxPositionSize(ctx context.Context, symbol domain.Symbol, riskPercent decimal.Decimal) (decimal.Decimal, error) {
	if !riskPercent.IsPositive() || riskPercent.GreaterThan(decimal.NewFromInt(10)) {
		return decimal.Zero, fmt.Errorf("%w: max risk percentage must be between 0 and 10 percent", domain.ErrInvalidParameter)
	}

	currentPrice, err := s.market.CurrentPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	stopDistance := currentPrice.Mul(maxStopRiskFraction)
	if !stopDistance.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: current price for %s is zero", domain.ErrInvalidParameter, symbol)
	}

	riskAmount := s.accountValue.Mul(riskPercent.Div(decimal.NewFromInt(100)))
	return riskAmount.Div(stopDistance).Round(2), nil
}

// ExposureBySymbol sums open position sizes per symbol for a user.
func (s *RiskService) ExposureBySymbol(ctx context.Context, userID int64) (map[domain.Symbol]decimal.Decimal, error) {
	positions, err := s.positions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	exposure := make(map[domain.Symbol]decimal.Decimal)
	for _, p := range positions {
		if p.Status != domain.StatusOpen {
			continue
		}
		exposure[p.Symbol] = exposure[p.Symbol].Add(p.Size)
	}
	return exposure, nil
}

// IsWithinAccountLimits checks a prospective position against the
// account-wide caps: at most 20% of the account in one symbol and at
// most 50% across all open positions.
func (s *RiskService) IsWithinAccountLimits(ctx context.Context, userID int64, symbol domain.Symbol, amount decimal.Decimal) (bool, error) {
	exposure, err := s.ExposureBySymbol(ctx, userID)
	if err != nil {
		return false, err
	}

	symbolExposure := exposure[symbol].Add(amount)
	withinSymbolLimit := symbolExposure.LessThanOrEqual(s.accountValue.Mul(decimal.NewFromFloat(0.2)))

	total := amount
	for _, e := range exposure {
		total = total.Add(e)
	}
	withinTotalLimit := total.LessThanOrEqual(s.accountValue.Mul(decimal.NewFromFloat(0.5)))

	return withinSymbolLimit && withinTotalLimit, nil
}

// PortfolioReport rolls the per-position assessments up to account level.
func (s *RiskService) PortfolioReport(ctx context.Context, userID int64) (*domain.PortfolioRiskReport, error) {
	positions, err := s.positions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	totalExposure := decimal.Zero
	totalRisk := decimal.Zero
	var assessments []domain.RiskAssessment

	for _, p := range positions {
		if p.Status != domain.StatusOpen {
			continue
		}
		assessment, err := s.AssessPosition(ctx, p)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, *assessment)
		totalExposure = totalExposure.Add(p.Size)
		totalRisk = totalRisk.Add(assessment.MaxLossAmount)
	}

	return &domain.PortfolioRiskReport{
		UserID:           userID,
		AccountValue:     s.accountValue,
		TotalExposure:    totalExposure,
		ExposurePercent:  totalExposure.Div(s.accountValue).Mul(hundred),
		TotalRisk:        totalRisk,
		TotalRiskPercent: totalRisk.Div(s.accountValue).Mul(hundred),
		PositionRisks:    assessments,
		GeneratedAt:      time.Now().UTC(),
	}, nil
}

// RiskyPositions lists a user's open positions whose stop-loss risk
// exceeds the profile limit, or which carry no stop at all.
func (s *RiskService) RiskyPositions(ctx context.Context, userID int64) ([]*domain.Position, error) {
	profile := domain.DefaultRiskProfile(userID)

	positions, err := s.positions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var risky []*domain.Position
	for _, p := range positions {
		if p.Status != domain.StatusOpen {
			continue
		}
		assessment, err := s.AssessPosition(ctx, p)
		if err != nil {
			return nil, err
		}
		if p.StopLoss == nil || assessment.StopLossRiskPercent.GreaterThan(profile.MaxRiskPerTrade) {
			risky = append(risky, p)
		}
	}

	if len(risky) > 0 {
		s.logger.Warn("risky positions identified",
			zap.Int64("user_id", userID),
			zap.Int("count", len(risky)))
	}
	return risky, nil
}
