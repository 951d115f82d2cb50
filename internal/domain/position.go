package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Status is the position lifecycle state. Closed and Cancelled are terminal.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusPending   Status = "PENDING"
	StatusClosed    Status = "CLOSED"
	StatusCancelled Status = "CANCELLED"
)

// Position is a single simulated trade. StopLoss, TakeProfit, ExitPrice
// and CloseTime are nil until set; zero is a valid price and must never
// stand in for "unset".
type Position struct {
	ID         string           `json:"id"`
	UserID     int64            `json:"user_id"`
	Symbol     Symbol           `json:"symbol"`
	Side       Side             `json:"side"`
	Size       decimal.Decimal  `json:"size"`
	EntryPrice decimal.Decimal  `json:"entry_price"`
	ExitPrice  *decimal.Decimal `json:"exit_price,omitempty"`
	StopLoss   *decimal.Decimal `json:"stop_loss,omitempty"`
	TakeProfit *decimal.Decimal `json:"take_profit,omitempty"`
	Status     Status           `json:"status"`
	OpenTime   time.Time        `json:"open_time"`
	CloseTime  *time.Time       `json:"close_time,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}

// ProfitLoss returns the realized result of a closed position, or nil
// while the position is not closed. Once closed the value is fixed:
// size * (exit - entry) for longs, negated for shorts.
func (p *Position) ProfitLoss() *decimal.Decimal {
	if p.Status != StatusClosed || p.ExitPrice == nil {
		return nil
	}
	pl := p.CurrentProfitLoss(*p.ExitPrice)
	return &pl
}

// CurrentProfitLoss marks the position to the given price.
func (p *Position) CurrentProfitLoss(currentPrice decimal.Decimal) decimal.Decimal {
	if p.Side == SideLong {
		return p.Size.Mul(currentPrice.Sub(p.EntryPrice))
	}
	return p.Size.Mul(p.EntryPrice.Sub(currentPrice))
}

// ShouldTriggerStopLoss reports whether price has crossed the stop level
// against the position. Always false when no stop is set.
func (p *Position) ShouldTriggerStopLoss(currentPrice decimal.Decimal) bool {
	if p.StopLoss == nil {
		return false
	}
	if p.Side == SideLong {
		return currentPrice.LessThanOrEqual(*p.StopLoss)
	}
	return currentPrice.GreaterThanOrEqual(*p.StopLoss)
}

// ShouldTriggerTakeProfit is the favorable-direction mirror of the stop check.
func (p *Position) ShouldTriggerTakeProfit(currentPrice decimal.Decimal) bool {
	if p.TakeProfit == nil {
		return false
	}
	if p.Side == SideLong {
		return currentPrice.GreaterThanOrEqual(*p.TakeProfit)
	}
	return currentPrice.LessThanOrEqual(*p.TakeProfit)
}

// Close marks the position closed at the given exit price.
func (p *Position) Close(exitPrice decimal.Decimal, at time.Time) {
	p.ExitPrice = &exitPrice
	p.CloseTime = &at
	p.Status = StatusClosed
}

// Cancel marks the position cancelled without an exit price.
func (p *Position) Cancel(at time.Time) {
	p.Status = StatusCancelled
	p.CloseTime = &at
}

// Clone returns a deep copy. The store hands out clones so callers never
// hold references into store-owned state.
func (p *Position) Clone() *Position {
	cp := *p
	if p.ExitPrice != nil {
		v := *p.ExitPrice
		cp.ExitPrice = &v
	}
	if p.StopLoss != nil {
		v := *p.StopLoss
		cp.StopLoss = &v
	}
	if p.TakeProfit != nil {
		v := *p.TakeProfit
		cp.TakeProfit = &v
	}
	if p.CloseTime != nil {
		t := *p.CloseTime
		cp.CloseTime = &t
	}
	return &cp
}

// ValidateProtectiveLevels checks that stop and take levels sit on the
// correct side of the entry price for the given direction:
// long: stop < entry < take, short: stop > entry > take.
func ValidateProtectiveLevels(side Side, entry decimal.Decimal, stopLoss, takeProfit *decimal.Decimal) error {
	if stopLoss != nil {
		if side == SideLong && stopLoss.GreaterThanOrEqual(entry) {
			return fmt.Errorf("%w: long stop loss must be below entry price", ErrInvalidParameter)
		}
		if side == SideShort && stopLoss.LessThanOrEqual(entry) {
			return fmt.Errorf("%w: short stop loss must be above entry price", ErrInvalidParameter)
		}
	}
	if takeProfit != nil {
		if side == SideLong && takeProfit.LessThanOrEqual(entry) {
			return fmt.Errorf("%w: long take profit must be above entry price", ErrInvalidParameter)
		}
		if side == SideShort && takeProfit.GreaterThanOrEqual(entry) {
			return fmt.Errorf("%w: short take profit must be below entry price", ErrInvalidParameter)
		}
	}
	return nil
}
