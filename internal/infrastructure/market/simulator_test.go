package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaubot/xaubot/internal/domain"
)

func newTestSimulator(seed int64) *Simulator {
	return NewSimulator(seed, time.Second, zap.NewNop())
}

func TestCurrentPriceKnownSymbols(t *testing.T) {
	sim := newTestSimulator(42)
	ctx := context.Background()

	for _, symbol := range domain.Symbols() {
		price, err := sim.CurrentPrice(ctx, symbol)
		require.NoError(t, err, "symbol %s", symbol)
		assert.True(t, price.IsPositive())
	}

	_, err := sim.CurrentPrice(ctx, domain.Symbol("DOGEUSD"))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryIsDeterministic(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := newTestSimulator(42).History(ctx, domain.SymbolXAUUSD, from, to)
	require.NoError(t, err)
	second, err := newTestSimulator(42).History(ctx, domain.SymbolXAUUSD, from, to)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.True(t, first[i].Close.Equal(second[i].Close), "candle %d", i)
		assert.True(t, first[i].Volume.Equal(second[i].Volume), "candle %d", i)
	}
}

func TestHistorySeedsDiffer(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 30)

	a, err := newTestSimulator(1).History(ctx, domain.SymbolXAUUSD, from, to)
	require.NoError(t, err)
	b, err := newTestSimulator(2).History(ctx, domain.SymbolXAUUSD, from, to)
	require.NoError(t, err)

	same := true
	for i := range a {
		if !a[i].Close.Equal(b[i].Close) {
			same = false
			break
		}
	}
	assert.False(t, same, "different seeds must produce different walks")
}

func TestHistoryShape(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 9)

	candles, err := newTestSimulator(42).History(ctx, domain.SymbolEURUSD, from, to)
	require.NoError(t, err)
	require.Len(t, candles, 10, "inclusive daily range")

	for i, c := range candles {
		assert.True(t, c.High.GreaterThanOrEqual(c.Open), "candle %d", i)
		assert.True(t, c.High.GreaterThanOrEqual(c.Close), "candle %d", i)
		assert.True(t, c.Low.LessThanOrEqual(c.Open), "candle %d", i)
		assert.True(t, c.Low.LessThanOrEqual(c.Close), "candle %d", i)
		if i > 0 {
			assert.True(t, c.Time.After(candles[i-1].Time))
			assert.True(t, c.Open.Equal(candles[i-1].Close), "each day opens at the previous close")
		}
	}
}

func TestHistoryRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator(42)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := sim.History(ctx, domain.Symbol("DOGEUSD"), now.AddDate(0, 0, -10), now)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = sim.History(ctx, domain.SymbolXAUUSD, now, now.AddDate(0, 0, -10))
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestSubscribeAndStep(t *testing.T) {
	sim := newTestSimulator(42)

	var ticks []domain.Tick
	unsubscribe := sim.Subscribe(domain.SymbolXAUUSD, func(tick domain.Tick) {
		ticks = append(ticks, tick)
	})

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	sim.step(now)
	require.Len(t, ticks, 1)
	assert.Equal(t, domain.SymbolXAUUSD, ticks[0].Symbol)
	assert.True(t, ticks[0].Price.IsPositive())
	assert.Equal(t, now, ticks[0].Time)

	unsubscribe()
	sim.step(now.Add(time.Second))
	assert.Len(t, ticks, 1, "no delivery after unsubscribe")
}

func TestStepMovesQuotes(t *testing.T) {
	sim := newTestSimulator(42)
	ctx := context.Background()

	before, err := sim.Quote(ctx, domain.SymbolBTCUSD)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		sim.step(time.Now().UTC())
	}

	after, err := sim.Quote(ctx, domain.SymbolBTCUSD)
	require.NoError(t, err)
	assert.False(t, after.CurrentPrice.Equal(before.CurrentPrice), "five ticks should move the price")
	assert.True(t, after.Volume.GreaterThan(before.Volume))
}
