package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskAssessment bundles the live risk picture of one open position.
// RiskRewardRatio is nil when either protective level is missing or the
// ratio would divide by zero.
type RiskAssessment struct {
	PositionID               string           `json:"position_id"`
	Symbol                   Symbol           `json:"symbol"`
	CurrentPrice             decimal.Decimal  `json:"current_price"`
	EntryPrice               decimal.Decimal  `json:"entry_price"`
	StopLoss                 *decimal.Decimal `json:"stop_loss,omitempty"`
	TakeProfit               *decimal.Decimal `json:"take_profit,omitempty"`
	PositionSize             decimal.Decimal  `json:"position_size"`
	CurrentProfitLoss        decimal.Decimal  `json:"current_profit_loss"`
	CurrentProfitLossPercent decimal.Decimal  `json:"current_profit_loss_percent"`
	StopLossRiskPercent      decimal.Decimal  `json:"stop_loss_risk_percent"`
	MaxLossAmount            decimal.Decimal  `json:"max_loss_amount"`
	RiskRewardRatio          *decimal.Decimal `json:"risk_reward_ratio,omitempty"`
	IsWithinRiskLimits       bool             `json:"is_within_risk_limits"`
}

// RiskProfile holds per-user risk limits, all percentages.
type RiskProfile struct {
	UserID                   int64           `json:"user_id"`
	MaxRiskPerTrade          decimal.Decimal `json:"max_risk_per_trade"`
	MaxRiskTotal             decimal.Decimal `json:"max_risk_total"`
	MaxExposurePerSymbol     decimal.Decimal `json:"max_exposure_per_symbol"`
	MaxExposureTotal         decimal.Decimal `json:"max_exposure_total"`
	DefaultStopLossPercent   decimal.Decimal `json:"default_stop_loss_percent"`
	DefaultTakeProfitPercent decimal.Decimal `json:"default_take_profit_percent"`
}

// DefaultRiskProfile returns the platform defaults: 2% per trade, 10%
// total risk, 20% per symbol, 50% total exposure, 2%/4% protective levels.
func DefaultRiskProfile(userID int64) RiskProfile {
	return RiskProfile{
		UserID:                   userID,
		MaxRiskPerTrade:          decimal.NewFromInt(2),
		MaxRiskTotal:             decimal.NewFromInt(10),
		MaxExposurePerSymbol:     decimal.NewFromInt(20),
		MaxExposureTotal:         decimal.NewFromInt(50),
		DefaultStopLossPercent:   decimal.NewFromInt(2),
		DefaultTakeProfitPercent: decimal.NewFromInt(4),
	}
}

// PortfolioRiskReport is the account-wide roll-up of per-position risk.
type PortfolioRiskReport struct {
	UserID           int64            `json:"user_id"`
	AccountValue     decimal.Decimal  `json:"account_value"`
	TotalExposure    decimal.Decimal  `json:"total_exposure"`
	ExposurePercent  decimal.Decimal  `json:"exposure_percent"`
	TotalRisk        decimal.Decimal  `json:"total_risk"`
	TotalRiskPercent decimal.Decimal  `json:"total_risk_percent"`
	PositionRisks    []RiskAssessment `json:"position_risks"`
	GeneratedAt      time.Time        `json:"generated_at"`
}
