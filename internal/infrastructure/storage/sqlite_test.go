package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaubot/xaubot/internal/domain"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	p := samplePosition(1, domain.SymbolXAUUSD)
	require.NoError(t, store.Create(ctx, p))
	require.NotEmpty(t, p.ID)

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, p.UserID, got.UserID)
	assert.Equal(t, p.Symbol, got.Symbol)
	assert.Equal(t, p.Side, got.Side)
	assert.Equal(t, p.Status, got.Status)
	assert.Equal(t, p.Notes, got.Notes)
	assert.True(t, got.Size.Equal(p.Size))
	assert.True(t, got.EntryPrice.Equal(p.EntryPrice))
	require.NotNil(t, got.StopLoss)
	assert.True(t, got.StopLoss.Equal(*p.StopLoss))
	assert.Nil(t, got.TakeProfit)
	assert.Nil(t, got.ExitPrice)
	assert.Nil(t, got.CloseTime)
}

func TestSQLiteStoreUpdateAndDelete(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	p := samplePosition(1, domain.SymbolXAUUSD)
	require.NoError(t, store.Create(ctx, p))

	p.Close(dec("2100.125"), time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC))
	require.NoError(t, store.Update(ctx, p))

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, got.Status)
	require.NotNil(t, got.ExitPrice)
	assert.True(t, got.ExitPrice.Equal(dec("2100.125")), "decimals survive the TEXT round trip, got %s", got.ExitPrice)
	require.NotNil(t, got.CloseTime)

	require.NoError(t, store.Delete(ctx, p.ID))
	_, err = store.Get(ctx, p.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStoreNotFound(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, store.Update(ctx, samplePosition(1, domain.SymbolXAUUSD)), domain.ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, "missing"), domain.ErrNotFound)
}

func TestSQLiteStoreListOrdering(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	times := []time.Time{
		time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	for _, ts := range times {
		p := samplePosition(1, domain.SymbolXAUUSD)
		p.OpenTime = ts
		require.NoError(t, store.Create(ctx, p))
	}

	positions, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 3)
	for i := 1; i < len(positions); i++ {
		assert.False(t, positions[i].OpenTime.Before(positions[i-1].OpenTime), "list is ordered by open time")
	}
}

func TestSQLiteStoreFilters(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	a := samplePosition(1, domain.SymbolXAUUSD)
	b := samplePosition(2, domain.SymbolBTCUSD)
	b.Status = domain.StatusCancelled
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))

	byUser, err := store.ListByUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, b.ID, byUser[0].ID)

	byStatus, err := store.ListByStatus(ctx, domain.StatusOpen)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, a.ID, byStatus[0].ID)

	bySymbol, err := store.ListBySymbol(ctx, domain.SymbolBTCUSD)
	require.NoError(t, err)
	require.Len(t, bySymbol, 1)
	assert.Equal(t, b.ID, bySymbol[0].ID)
}
