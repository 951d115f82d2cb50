package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xaubot/xaubot/internal/domain"
)

const endOfBacktestReason = "End of backtest period"

// BacktestConfig sizes the simulated account. Zero values fall back to
// the defaults the platform has always used: 10,000 starting balance,
// 10% of balance per trade.
type BacktestConfig struct {
	InitialBalance decimal.Decimal `json:"initial_balance" yaml:"initial_balance"`
	TradeFraction  decimal.Decimal `json:"trade_fraction" yaml:"trade_fraction"`
}

func (c BacktestConfig) withDefaults() BacktestConfig {
	if !c.InitialBalance.IsPositive() {
		c.InitialBalance = decimal.NewFromInt(10000)
	}
	if !c.TradeFraction.IsPositive() || c.TradeFraction.GreaterThan(decimal.NewFromInt(1)) {
		c.TradeFraction = decimal.NewFromFloat(0.1)
	}
	return c
}

// BacktestRunner replays a candle series through the moving-average
// crossover rule, one position at a time. Entries and exits fill at the
// next bar's close so the simulation never looks ahead. The runner holds
// no mutable state and contains no randomness: the same series and
// parameters always produce the identical trade list.
type BacktestRunner struct {
	cfg BacktestConfig
}

func NewBacktestRunner(cfg BacktestConfig) *BacktestRunner {
	return &BacktestRunner{cfg: cfg.withDefaults()}
}

// Run walks the series from the first bar where both SMAs are defined
// through the second-to-last bar and reports aggregate statistics.
func (r *BacktestRunner) Run(symbol domain.Symbol, candles []domain.Candle, params StrategyParams) (*domain.BacktestResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(candles) < params.MinHistory() {
		return nil, fmt.Errorf("%w: need at least %d candles for %s, have %d",
			domain.ErrInsufficientData, params.MinHistory(), symbol, len(candles))
	}

	closes := closePrices(candles)
	fastMA := SMA(closes, params.FastPeriod)
	slowMA := SMA(closes, params.SlowPeriod)

	hundred := decimal.NewFromInt(100)
	balance := r.cfg.InitialBalance
	maxBalance := balance
	maxDrawdown := decimal.Zero
	totalProfit := decimal.Zero
	totalLoss := decimal.Zero

	trades := []domain.BacktestTrade{}
	var open *domain.BacktestTrade

	settle := func(t *domain.BacktestTrade) {
		pl := tradeProfitLoss(t)
		t.ProfitLoss = &pl

		notional := t.EntryPrice.Mul(t.Quantity)
		if !notional.IsZero() {
			pct := pl.Div(notional).Mul(hundred)
			t.ProfitLossPercentage = &pct
		}

		balance = balance.Add(pl)
		if balance.GreaterThan(maxBalance) {
			maxBalance = balance
		} else if maxBalance.IsPositive() {
			dd := maxBalance.Sub(balance).Div(maxBalance)
			if dd.GreaterThan(maxDrawdown) {
				maxDrawdown = dd
			}
		}

		if pl.IsPositive() {
			totalProfit = totalProfit.Add(pl)
		} else {
			totalLoss = totalLoss.Sub(pl)
		}
		trades = append(trades, *t)
	}

	for i := params.SlowPeriod; i < len(closes)-1; i++ {
		bullish, crossed := crossoverAt(fastMA, slowMA, i)
		if !crossed {
			continue
		}

		nextPrice := closes[i+1]
		now := candles[i].Time

		if open == nil {
			if nextPrice.IsZero() {
				continue
			}
			side := domain.SideShort
			if bullish {
				side = domain.SideLong
			}
			quantity := balance.Mul(r.cfg.TradeFraction).Div(nextPrice)
			open = &domain.BacktestTrade{
				EntryTime:  now,
				EntryPrice: nextPrice,
				Side:       side,
				Quantity:   quantity,
			}
			continue
		}

		// A position is open: only the opposite crossover closes it.
		if open.Side == domain.SideLong && !bullish {
			exitAt := now
			price := nextPrice
			open.ExitTime = &exitAt
			open.ExitPrice = &price
			open.ExitReason = "Exit long position on bearish crossover"
			settle(open)
			open = nil
		} else if open.Side == domain.SideShort && bullish {
			exitAt := now
			price := nextPrice
			open.ExitTime = &exitAt
			open.ExitPrice = &price
			open.ExitReason = "Exit short position on bullish crossover"
			settle(open)
			open = nil
		}
	}

	// Force-close whatever is still open at the last available price.
	if open != nil {
		last := len(candles) - 1
		exitAt := candles[last].Time
		price := closes[last]
		open.ExitTime = &exitAt
		open.ExitPrice = &price
		open.ExitReason = endOfBacktestReason
		settle(open)
		open = nil
	}

	wins, losses := 0, 0
	for i := range trades {
		if trades[i].IsWinner() {
			wins++
		} else {
			losses++
		}
	}

	winRate := decimal.Zero
	if len(trades) > 0 {
		winRate = decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(len(trades))))
	}
	profitFactor := totalProfit
	if totalLoss.IsPositive() {
		profitFactor = totalProfit.Div(totalLoss)
	}

	return &domain.BacktestResult{
		Symbol:         symbol,
		StartDate:      candles[0].Time,
		EndDate:        candles[len(candles)-1].Time,
		TotalSignals:   len(trades),
		WinningTrades:  wins,
		LosingTrades:   losses,
		WinRate:        winRate,
		InitialBalance: r.cfg.InitialBalance,
		FinalBalance:   balance,
		NetProfit:      balance.Sub(r.cfg.InitialBalance),
		ProfitFactor:   profitFactor,
		MaxDrawdown:    maxDrawdown.Mul(hundred),
		Trades:         trades,
	}, nil
}

func tradeProfitLoss(t *domain.BacktestTrade) decimal.Decimal {
	if t.ExitPrice == nil {
		return decimal.Zero
	}
	if t.Side == domain.SideLong {
		return t.ExitPrice.Sub(t.EntryPrice).Mul(t.Quantity)
	}
	return t.EntryPrice.Sub(*t.ExitPrice).Mul(t.Quantity)
}
