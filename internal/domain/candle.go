package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one bar of a historical price series, ascending by Time.
type Candle struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// Quote is the current snapshot for a symbol.
type Quote struct {
	Symbol        Symbol          `json:"symbol"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	DailyHigh     decimal.Decimal `json:"daily_high"`
	DailyLow      decimal.Decimal `json:"daily_low"`
	OpenPrice     decimal.Decimal `json:"open_price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	Volume        decimal.Decimal `json:"volume"`
}

// Tick is a single simulated price update pushed to subscribers.
type Tick struct {
	Symbol Symbol          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Time   time.Time       `json:"time"`
}
