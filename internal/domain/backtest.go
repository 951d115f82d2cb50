package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BacktestTrade mirrors Position but is scoped to a single backtest run.
type BacktestTrade struct {
	EntryTime            time.Time        `json:"entry_time"`
	ExitTime             *time.Time       `json:"exit_time,omitempty"`
	EntryPrice           decimal.Decimal  `json:"entry_price"`
	ExitPrice            *decimal.Decimal `json:"exit_price,omitempty"`
	Side                 Side             `json:"side"`
	Quantity             decimal.Decimal  `json:"quantity"`
	ProfitLoss           *decimal.Decimal `json:"profit_loss,omitempty"`
	ProfitLossPercentage *decimal.Decimal `json:"profit_loss_percentage,omitempty"`
	ExitReason           string           `json:"exit_reason,omitempty"`
}

// IsWinner reports whether the trade closed with a positive result.
func (t *BacktestTrade) IsWinner() bool {
	return t.ProfitLoss != nil && t.ProfitLoss.IsPositive()
}

// BacktestResult aggregates one full strategy replay over a price series.
type BacktestResult struct {
	Symbol         Symbol          `json:"symbol"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	TotalSignals   int             `json:"total_signals"`
	WinningTrades  int             `json:"winning_trades"`
	LosingTrades   int             `json:"losing_trades"`
	WinRate        decimal.Decimal `json:"win_rate"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	FinalBalance   decimal.Decimal `json:"final_balance"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	ProfitFactor   decimal.Decimal `json:"profit_factor"`
	MaxDrawdown    decimal.Decimal `json:"max_drawdown"`
	Trades         []BacktestTrade `json:"trades"`
}
