package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SignalType string

const (
	SignalBuy        SignalType = "BUY"
	SignalStrongBuy  SignalType = "STRONG_BUY"
	SignalSell       SignalType = "SELL"
	SignalStrongSell SignalType = "STRONG_SELL"
	SignalHold       SignalType = "HOLD"
)

// IsBuy reports whether the signal points long.
func (s SignalType) IsBuy() bool {
	return s == SignalBuy || s == SignalStrongBuy
}

// IsSell reports whether the signal points short.
func (s SignalType) IsSell() bool {
	return s == SignalSell || s == SignalStrongSell
}

// StrategySignal is the output of one strategy evaluation. It is created
// fresh per call, never mutated, and never persisted by the core.
type StrategySignal struct {
	Symbol          Symbol                     `json:"symbol"`
	SignalType      SignalType                 `json:"signal_type"`
	Reason          string                     `json:"reason"`
	EntryPrice      decimal.Decimal            `json:"entry_price"`
	StopLoss        *decimal.Decimal           `json:"stop_loss,omitempty"`
	TakeProfit      *decimal.Decimal           `json:"take_profit,omitempty"`
	Confidence      decimal.Decimal            `json:"confidence"`
	IndicatorValues map[string]decimal.Decimal `json:"indicator_values"`
	GeneratedAt     time.Time                  `json:"generated_at"`
}
