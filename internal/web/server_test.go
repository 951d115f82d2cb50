package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaubot/xaubot/internal/domain"
	"github.com/xaubot/xaubot/internal/infrastructure/storage"
	"github.com/xaubot/xaubot/internal/usecase"
)

// fixedMarket serves a constant price and a gently rising history so the
// strategy endpoints always have enough data.
type fixedMarket struct {
	price decimal.Decimal
}

func (m *fixedMarket) CurrentPrice(ctx context.Context, symbol domain.Symbol) (decimal.Decimal, error) {
	if _, err := domain.ParseSymbol(string(symbol)); err != nil {
		return decimal.Zero, fmt.Errorf("%w: market data for symbol %s", domain.ErrNotFound, symbol)
	}
	return m.price, nil
}

func (m *fixedMarket) Quote(ctx context.Context, symbol domain.Symbol) (*domain.Quote, error) {
	price, err := m.CurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &domain.Quote{Symbol: symbol, CurrentPrice: price}, nil
}

func (m *fixedMarket) History(ctx context.Context, symbol domain.Symbol, from, to time.Time) ([]domain.Candle, error) {
	if _, err := domain.ParseSymbol(string(symbol)); err != nil {
		return nil, fmt.Errorf("%w: market data for symbol %s", domain.ErrNotFound, symbol)
	}
	var candles []domain.Candle
	price := decimal.NewFromInt(1000)
	step := decimal.NewFromInt(1)
	for day := from.Truncate(24 * time.Hour); !day.After(to); day = day.Add(24 * time.Hour) {
		candles = append(candles, domain.Candle{Time: day, Open: price, High: price, Low: price, Close: price})
		price = price.Add(step)
	}
	return candles, nil
}

func (m *fixedMarket) Subscribe(symbol domain.Symbol, fn func(domain.Tick)) func() {
	return func() {}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()
	store := storage.NewMemoryStore()
	market := &fixedMarket{price: decimal.NewFromInt(2000)}
	trading := usecase.NewTradingService(store, logger)
	risk := usecase.NewRiskService(store, market, decimal.NewFromInt(10000), logger)
	return NewServer(0, trading, risk, market, usecase.BacktestConfig{}, logger)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func openTestPosition(t *testing.T, handler http.Handler) map[string]any {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/positions", map[string]any{
		"user_id":     1,
		"symbol":      "XAUUSD",
		"side":        "LONG",
		"size":        "1",
		"entry_price": "2000",
		"stop_loss":   "1960",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created["id"])
	return created
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()
	rec := doJSON(t, handler, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestPositionLifecycleOverHTTP(t *testing.T) {
	handler := newTestServer(t).Handler()

	created := openTestPosition(t, handler)
	id := created["id"].(string)

	rec := doJSON(t, handler, http.MethodGet, "/positions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/positions/"+id+"/close", map[string]any{"exit_price": "2050"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var closed map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &closed))
	assert.Equal(t, "CLOSED", closed["status"])

	// Closing twice conflicts.
	rec = doJSON(t, handler, http.MethodPost, "/positions/"+id+"/close", map[string]any{"exit_price": "2050"})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestOpenPositionRejectsBadInput(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/positions", map[string]any{
		"user_id":     1,
		"symbol":      "DOGEUSD",
		"side":        "LONG",
		"size":        "1",
		"entry_price": "2000",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/positions", map[string]any{
		"user_id":     1,
		"symbol":      "XAUUSD",
		"side":        "LONG",
		"size":        "0",
		"entry_price": "2000",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPositionNotFound(t *testing.T) {
	handler := newTestServer(t).Handler()
	rec := doJSON(t, handler, http.MethodGet, "/positions/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStopLossOverHTTP(t *testing.T) {
	handler := newTestServer(t).Handler()
	id := openTestPosition(t, handler)["id"].(string)

	rec := doJSON(t, handler, http.MethodPut, "/positions/"+id+"/stop-loss", map[string]any{"stop_loss": "1950"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Stop above a long entry is rejected.
	rec = doJSON(t, handler, http.MethodPut, "/positions/"+id+"/stop-loss", map[string]any{"stop_loss": "2100"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPositionRiskEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()
	id := openTestPosition(t, handler)["id"].(string)

	rec := doJSON(t, handler, http.MethodGet, "/positions/"+id+"/risk", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var assessment map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assessment))
	assert.Equal(t, id, assessment["position_id"])
	assert.Equal(t, true, assessment["is_within_risk_limits"])
}

func TestMaxPositionSizeEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/risk/max-position-size?symbol=XAUUSD&risk_percent=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "max_position_size")

	rec = doJSON(t, handler, http.MethodGet, "/risk/max-position-size?symbol=XAUUSD", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, "risk_percent is required")
}

func TestSignalEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/signals/XAUUSD", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var signal map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signal))
	assert.Equal(t, "XAUUSD", signal["symbol"])
	assert.NotEmpty(t, signal["signal_type"])

	rec = doJSON(t, handler, http.MethodGet, "/signals/DOGEUSD", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBacktestEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/backtest", map[string]any{
		"symbol": "XAUUSD",
		"days":   120,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "XAUUSD", result["symbol"])
	assert.NotNil(t, result["final_balance"])

	rec = doJSON(t, handler, http.MethodPost, "/backtest", map[string]any{
		"symbol":      "XAUUSD",
		"fast_period": 50,
		"slow_period": 10,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, "fast period above slow period is invalid")
}

func TestQuoteEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/quotes/XAUUSD", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/quotes/DOGEUSD", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
