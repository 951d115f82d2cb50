package usecase

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xaubot/xaubot/internal/domain"
)

// StrategyParams configures the moving-average crossover strategy. An
// explicit struct instead of a loose parameter bag: everything is
// validated once, up front.
type StrategyParams struct {
	FastPeriod      int             `json:"fast_period" yaml:"fast_period"`
	SlowPeriod      int             `json:"slow_period" yaml:"slow_period"`
	SignalThreshold decimal.Decimal `json:"signal_threshold" yaml:"signal_threshold"`
	StopLossPct     decimal.Decimal `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfitPct   decimal.Decimal `json:"take_profit_pct" yaml:"take_profit_pct"`
}

// DefaultStrategyParams returns the stock configuration: SMA 10/50,
// signal threshold 0.5, protective levels at 2% / 4%.
func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		FastPeriod:      10,
		SlowPeriod:      50,
		SignalThreshold: decimal.NewFromFloat(0.5),
		StopLossPct:     decimal.NewFromFloat(0.02),
		TakeProfitPct:   decimal.NewFromFloat(0.04),
	}
}

// Validate rejects period combinations the SMA math cannot support.
func (p StrategyParams) Validate() error {
	if p.FastPeriod < 2 {
		return fmt.Errorf("%w: fast period must be at least 2", domain.ErrInvalidParameter)
	}
	if p.FastPeriod >= p.SlowPeriod {
		return fmt.Errorf("%w: fast period must be less than slow period", domain.ErrInvalidParameter)
	}
	if !p.SignalThreshold.IsPositive() {
		return fmt.Errorf("%w: signal threshold must be positive", domain.ErrInvalidParameter)
	}
	return nil
}

// MinHistory is the shortest candle series the strategy accepts.
func (p StrategyParams) MinHistory() int {
	return p.SlowPeriod + 5
}

// SMA computes the simple moving average over the trailing period for
// every index of the series. The slice is aligned to the input; the
// first period-1 entries are zero placeholders and carry no meaning.
func SMA(values []decimal.Decimal, period int) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	if period <= 0 {
		return out
	}
	var sum decimal.Decimal
	for i, v := range values {
		sum = sum.Add(v)
		if i < period-1 {
			continue
		}
		if i >= period {
			sum = sum.Sub(values[i-period])
		}
		out[i] = sum.Div(decimal.NewFromInt(int64(period)))
	}
	return out
}

// Crossover marks one fast/slow SMA crossing within a series.
type Crossover struct {
	Index   int       `json:"index"`
	Time    time.Time `json:"time"`
	Bullish bool      `json:"bullish"`
}

// MovingAverageStrategy emits directional signals when a fast SMA
// crosses a slow SMA. Evaluation is stateless; all history is supplied
// by the caller, so concurrent use needs no synchronization.
type MovingAverageStrategy struct {
	params StrategyParams
}

func NewMovingAverageStrategy(params StrategyParams) (*MovingAverageStrategy, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &MovingAverageStrategy{params: params}, nil
}

func (s *MovingAverageStrategy) Name() string { return "Moving Average Crossover" }

func (s *MovingAverageStrategy) Params() StrategyParams { return s.params }

// Evaluate inspects the latest two bars of the series for a crossover
// and produces a signal priced at currentPrice.
func (s *MovingAverageStrategy) Evaluate(symbol domain.Symbol, candles []domain.Candle, currentPrice decimal.Decimal) (*domain.StrategySignal, error) {
	if len(candles) < s.params.MinHistory() {
		return nil, fmt.Errorf("%w: need at least %d candles for %s, have %d",
			domain.ErrInsufficientData, s.params.MinHistory(), symbol, len(candles))
	}

	closes := closePrices(candles)
	fastMA := SMA(closes, s.params.FastPeriod)
	slowMA := SMA(closes, s.params.SlowPeriod)

	last := len(closes) - 1
	currFast, currSlow := fastMA[last], slowMA[last]
	prevFast, prevSlow := fastMA[last-1], slowMA[last-1]

	var (
		signalType domain.SignalType
		reason     string
		confidence decimal.Decimal
	)
	switch {
	case currFast.GreaterThan(currSlow) && prevFast.LessThanOrEqual(prevSlow):
		signalType = domain.SignalBuy
		reason = "Bullish crossover: fast MA crossed above slow MA"
		confidence = s.confidence(currFast, currSlow)
		if confidence.GreaterThan(decimal.NewFromFloat(0.8)) {
			signalType = domain.SignalStrongBuy
		}
	case currFast.LessThan(currSlow) && prevFast.GreaterThanOrEqual(prevSlow):
		signalType = domain.SignalSell
		reason = "Bearish crossover: fast MA crossed below slow MA"
		confidence = s.confidence(currFast, currSlow)
		if confidence.GreaterThan(decimal.NewFromFloat(0.8)) {
			signalType = domain.SignalStrongSell
		}
	default:
		signalType = domain.SignalHold
		reason = "No MA crossover detected"
		confidence = decimal.NewFromFloat(0.1)
	}

	var stopLoss, takeProfit *decimal.Decimal
	one := decimal.NewFromInt(1)
	if signalType.IsBuy() {
		sl := currentPrice.Mul(one.Sub(s.params.StopLossPct))
		tp := currentPrice.Mul(one.Add(s.params.TakeProfitPct))
		stopLoss, takeProfit = &sl, &tp
	} else if signalType.IsSell() {
		sl := currentPrice.Mul(one.Add(s.params.StopLossPct))
		tp := currentPrice.Mul(one.Sub(s.params.TakeProfitPct))
		stopLoss, takeProfit = &sl, &tp
	}

	return &domain.StrategySignal{
		Symbol:     symbol,
		SignalType: signalType,
		Reason:     reason,
		EntryPrice: currentPrice,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Confidence: confidence,
		IndicatorValues: map[string]decimal.Decimal{
			fmt.Sprintf("SMA%d", s.params.FastPeriod): currFast,
			fmt.Sprintf("SMA%d", s.params.SlowPeriod): currSlow,
		},
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Crossovers scans the whole series and returns every crossing in order.
// The first index where both SMAs are defined counts as a crossover when
// the fast SMA already sits off the slow one; the warmup region before
// it is treated as a neutral fast==slow state.
func (s *MovingAverageStrategy) Crossovers(candles []domain.Candle) ([]Crossover, error) {
	if len(candles) < s.params.MinHistory() {
		return nil, fmt.Errorf("%w: need at least %d candles, have %d",
			domain.ErrInsufficientData, s.params.MinHistory(), len(candles))
	}

	closes := closePrices(candles)
	fastMA := SMA(closes, s.params.FastPeriod)
	slowMA := SMA(closes, s.params.SlowPeriod)

	var out []Crossover
	first := s.params.SlowPeriod - 1
	switch fastMA[first].Cmp(slowMA[first]) {
	case 1:
		out = append(out, Crossover{Index: first, Time: candles[first].Time, Bullish: true})
	case -1:
		out = append(out, Crossover{Index: first, Time: candles[first].Time, Bullish: false})
	}
	for i := first + 1; i < len(closes); i++ {
		if bullish, crossed := crossoverAt(fastMA, slowMA, i); crossed {
			out = append(out, Crossover{Index: i, Time: candles[i].Time, Bullish: bullish})
		}
	}
	return out, nil
}

// PositionSize converts the latest signal into a quantity risking the
// given percentage of the account between entry and stop.
func (s *MovingAverageStrategy) PositionSize(accountBalance, riskPercent decimal.Decimal, signal *domain.StrategySignal) (decimal.Decimal, error) {
	if !riskPercent.IsPositive() || riskPercent.GreaterThan(decimal.NewFromInt(5)) {
		return decimal.Zero, fmt.Errorf("%w: risk percentage must be between 0 and 5 percent", domain.ErrInvalidParameter)
	}
	if signal.SignalType == domain.SignalHold {
		return decimal.Zero, nil
	}
	if signal.StopLoss == nil {
		return decimal.Zero, fmt.Errorf("%w: stop loss is required for position sizing", domain.ErrInvalidParameter)
	}

	riskAmount := accountBalance.Mul(riskPercent.Div(decimal.NewFromInt(100)))
	var riskPerUnit decimal.Decimal
	if signal.SignalType.IsBuy() {
		riskPerUnit = signal.EntryPrice.Sub(*signal.StopLoss)
	} else {
		riskPerUnit = signal.StopLoss.Sub(signal.EntryPrice)
	}
	if !riskPerUnit.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: stop loss on the wrong side of entry", domain.ErrInvalidParameter)
	}
	return riskAmount.Div(riskPerUnit).RoundDown(2), nil
}

// confidence scales with how far the fast SMA sits off the slow one,
// clamped to [0.1, 1.0].
func (s *MovingAverageStrategy) confidence(fast, slow decimal.Decimal) decimal.Decimal {
	floor := decimal.NewFromFloat(0.1)
	if slow.IsZero() {
		return floor
	}
	c := fast.Sub(slow).Abs().Div(slow).Div(s.params.SignalThreshold)
	if c.GreaterThan(decimal.NewFromInt(1)) {
		c = decimal.NewFromInt(1)
	}
	if c.LessThan(floor) {
		c = floor
	}
	return c
}

// crossoverAt reports whether the SMAs crossed between bars i-1 and i.
// Both indices must lie in the defined region of the slow SMA.
func crossoverAt(fastMA, slowMA []decimal.Decimal, i int) (bullish, crossed bool) {
	currFast, currSlow := fastMA[i], slowMA[i]
	prevFast, prevSlow := fastMA[i-1], slowMA[i-1]
	if currFast.GreaterThan(currSlow) && prevFast.LessThanOrEqual(prevSlow) {
		return true, true
	}
	if currFast.LessThan(currSlow) && prevFast.GreaterThanOrEqual(prevSlow) {
		return false, true
	}
	return false, false
}

func closePrices(candles []domain.Candle) []decimal.Decimal {
	closes := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
