package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PositionRepository is the trading activity store. Implementations own
// the canonical data and are the only mutators; every method returns or
// accepts detached copies, so callers never share references with the
// store's internals.
type PositionRepository interface {
	// Create persists the position and assigns its ID.
	Create(ctx context.Context, p *Position) error
	// Get returns ErrNotFound when no position has the given id.
	Get(ctx context.Context, id string) (*Position, error)
	List(ctx context.Context) ([]*Position, error)
	ListByUser(ctx context.Context, userID int64) ([]*Position, error)
	ListByStatus(ctx context.Context, status Status) ([]*Position, error)
	ListBySymbol(ctx context.Context, symbol Symbol) ([]*Position, error)
	// Update returns ErrNotFound when the position does not exist.
	Update(ctx context.Context, p *Position) error
	Delete(ctx context.Context, id string) error
}

// MarketData supplies prices to the risk and strategy layers. The
// production implementation is a seeded simulator; nothing in the core
// depends on where the numbers come from.
type MarketData interface {
	CurrentPrice(ctx context.Context, symbol Symbol) (decimal.Decimal, error)
	Quote(ctx context.Context, symbol Symbol) (*Quote, error)
	// History returns daily candles in [from, to], ascending by time.
	History(ctx context.Context, symbol Symbol, from, to time.Time) ([]Candle, error)
	// Subscribe registers a callback for simulated ticks and returns a
	// function that removes it again.
	Subscribe(symbol Symbol, fn func(Tick)) (unsubscribe func())
}
