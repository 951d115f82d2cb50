package market

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xaubot/xaubot/internal/domain"
)

// baseQuote seeds the simulator with a plausible snapshot per symbol.
type baseQuote struct {
	price, high, low, open, prevClose, volume float64
}

var baseQuotes = map[domain.Symbol]baseQuote{
	domain.SymbolXAUUSD: {2024.55, 2030.25, 2018.75, 2022.15, 2021.90, 15420},
	domain.SymbolXAGUSD: {25.67, 25.89, 25.42, 25.65, 25.58, 32150},
	domain.SymbolEURUSD: {1.0815, 1.0845, 1.0792, 1.0825, 1.0830, 87650},
	domain.SymbolGBPUSD: {1.2645, 1.2675, 1.2610, 1.2635, 1.2640, 65430},
	domain.SymbolUSDJPY: {155.65, 156.10, 155.25, 155.40, 155.50, 74320},
	domain.SymbolBTCUSD: {68452.33, 69125.75, 67895.42, 68225.50, 68125.25, 12540},
	domain.SymbolETHUSD: {3224.45, 3275.20, 3198.65, 3210.75, 3215.50, 18650},
}

// Simulator is the in-process market data source: a seeded random walk
// per symbol. Historical series are derived purely from the seed and the
// requested range, so repeated History calls return identical candles —
// the strategy and backtest layers stay deterministic even though live
// ticks keep moving.
type Simulator struct {
	seed     int64
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	rng       *rand.Rand
	quotes    map[domain.Symbol]*domain.Quote
	subs      map[domain.Symbol]map[int64]func(domain.Tick)
	nextSubID int64
}

func NewSimulator(seed int64, tickInterval time.Duration, logger *zap.Logger) *Simulator {
	if tickInterval <= 0 {
		tickInterval = 2 * time.Second
	}

	quotes := make(map[domain.Symbol]*domain.Quote, len(baseQuotes))
	for symbol, b := range baseQuotes {
		quotes[symbol] = &domain.Quote{
			Symbol:        symbol,
			CurrentPrice:  decimal.NewFromFloat(b.price),
			DailyHigh:     decimal.NewFromFloat(b.high),
			DailyLow:      decimal.NewFromFloat(b.low),
			OpenPrice:     decimal.NewFromFloat(b.open),
			PreviousClose: decimal.NewFromFloat(b.prevClose),
			Volume:        decimal.NewFromFloat(b.volume),
		}
	}

	return &Simulator{
		seed:     seed,
		interval: tickInterval,
		logger:   logger,
		rng:      rand.New(rand.NewSource(seed)),
		quotes:   quotes,
		subs:     make(map[domain.Symbol]map[int64]func(domain.Tick)),
	}
}

func (s *Simulator) CurrentPrice(ctx context.Context, symbol domain.Symbol) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quotes[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: market data for symbol %s", domain.ErrNotFound, symbol)
	}
	return q.CurrentPrice, nil
}

func (s *Simulator) Quote(ctx context.Context, symbol domain.Symbol) (*domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: market data for symbol %s", domain.ErrNotFound, symbol)
	}
	cp := *q
	return &cp, nil
}

// History generates daily candles for [from, to]. The walk is seeded
// from the simulator seed and the symbol alone, independent of live tick
// state.
func (s *Simulator) History(ctx context.Context, symbol domain.Symbol, from, to time.Time) ([]domain.Candle, error) {
	base, ok := baseQuotes[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: market data for symbol %s", domain.ErrNotFound, symbol)
	}
	from = from.UTC().Truncate(24 * time.Hour)
	to = to.UTC().Truncate(24 * time.Hour)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: history range end before start", domain.ErrInvalidParameter)
	}

	rng := rand.New(rand.NewSource(s.seed ^ symbolSeed(symbol)))
	vol := symbol.VolatilityFactor()

	var candles []domain.Candle
	prevClose := base.price
	for day := from; !day.After(to); day = day.Add(24 * time.Hour) {
		open := prevClose
		move := vol * 2 * (rng.Float64() - 0.5)
		close := open * (1 + move)

		high := open
		if close > high {
			high = close
		}
		high *= 1 + vol*rng.Float64()/2

		low := open
		if close < low {
			low = close
		}
		low *= 1 - vol*rng.Float64()/2

		volume := base.volume * (0.5 + rng.Float64())

		candles = append(candles, domain.Candle{
			Time:   day,
			Open:   decimal.NewFromFloat(open),
			High:   decimal.NewFromFloat(high),
			Low:    decimal.NewFromFloat(low),
			Close:  decimal.NewFromFloat(close),
			Volume: decimal.NewFromFloat(volume).Round(0),
		})
		prevClose = close
	}
	return candles, nil
}

// Subscribe registers a tick callback and returns its removal function.
func (s *Simulator) Subscribe(symbol domain.Symbol, fn func(domain.Tick)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs[symbol] == nil {
		s.subs[symbol] = make(map[int64]func(domain.Tick))
	}
	id := s.nextSubID
	s.nextSubID++
	s.subs[symbol][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[symbol], id)
	}
}

// Run drives the live random walk until the context is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("market simulator started",
		zap.Int64("seed", s.seed),
		zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("market simulator stopped")
			return
		case now := <-ticker.C:
			s.step(now.UTC())
		}
	}
}

// step advances every symbol one tick and notifies subscribers outside
// the lock.
func (s *Simulator) step(now time.Time) {
	type notification struct {
		fn   func(domain.Tick)
		tick domain.Tick
	}
	var pending []notification

	s.mu.Lock()
	for _, symbol := range domain.Symbols() {
		q, ok := s.quotes[symbol]
		if !ok {
			continue
		}

		vol := symbol.VolatilityFactor()
		move := s.rng.Float64()*vol - vol/2
		newPrice := q.CurrentPrice.Mul(decimal.NewFromFloat(1 + move))

		q.CurrentPrice = newPrice
		if newPrice.GreaterThan(q.DailyHigh) {
			q.DailyHigh = newPrice
		}
		if newPrice.LessThan(q.DailyLow) {
			q.DailyLow = newPrice
		}
		q.Volume = q.Volume.Add(decimal.NewFromInt(int64(50 + s.rng.Intn(150))))

		tick := domain.Tick{Symbol: symbol, Price: newPrice, Time: now}
		for _, fn := range s.subs[symbol] {
			pending = append(pending, notification{fn: fn, tick: tick})
		}
	}
	s.mu.Unlock()

	for _, n := range pending {
		n.fn(n.tick)
	}
}

func symbolSeed(symbol domain.Symbol) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return int64(h.Sum64())
}
