package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaubot/xaubot/internal/domain"
	"github.com/xaubot/xaubot/internal/infrastructure/storage"
)

// stubMarket returns a fixed price for every symbol it knows about.
type stubMarket struct {
	prices map[domain.Symbol]decimal.Decimal
}

func (m *stubMarket) CurrentPrice(ctx context.Context, symbol domain.Symbol) (decimal.Decimal, error) {
	price, ok := m.prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: market data for symbol %s", domain.ErrNotFound, symbol)
	}
	return price, nil
}

func (m *stubMarket) Quote(ctx context.Context, symbol domain.Symbol) (*domain.Quote, error) {
	price, err := m.CurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &domain.Quote{Symbol: symbol, CurrentPrice: price}, nil
}

func (m *stubMarket) History(ctx context.Context, symbol domain.Symbol, from, to time.Time) ([]domain.Candle, error) {
	return nil, nil
}

func (m *stubMarket) Subscribe(symbol domain.Symbol, fn func(domain.Tick)) func() {
	return func() {}
}

func newRiskFixture(t *testing.T, price string) (*RiskService, *TradingService) {
	t.Helper()
	store := storage.NewMemoryStore()
	market := &stubMarket{prices: map[domain.Symbol]decimal.Decimal{
		domain.SymbolXAUUSD: dec(price),
	}}
	logger := zap.NewNop()
	return NewRiskService(store, market, dec("10000"), logger), NewTradingService(store, logger)
}

func openPosition(t *testing.T, trading *TradingService, stop, take *decimal.Decimal) *domain.Position {
	t.Helper()
	p, err := trading.OpenPosition(context.Background(), OpenPositionParams{
		UserID:     1,
		Symbol:     domain.SymbolXAUUSD,
		Side:       domain.SideLong,
		Size:       dec("2"),
		EntryPrice: dec("1000"),
		StopLoss:   stop,
		TakeProfit: take,
	})
	require.NoError(t, err)
	return p
}

func TestAssessPositionStopRiskBoundary(t *testing.T) {
	tests := []struct {
		name        string
		stop        string
		wantPercent string
		wantWithin  bool
	}{
		{"just inside", "980.01", "1.999", true},
		{"exactly at limit", "980", "2", true},
		{"just outside", "979.99", "2.001", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk, trading := newRiskFixture(t, "1000")
			stop := dec(tt.stop)
			p := openPosition(t, trading, &stop, nil)

			assessment, err := risk.AssessPosition(context.Background(), p)
			require.NoError(t, err)

			assert.True(t, assessment.StopLossRiskPercent.Equal(dec(tt.wantPercent)),
				"got %s", assessment.StopLossRiskPercent)
			assert.Equal(t, tt.wantWithin, assessment.IsWithinRiskLimits)
		})
	}
}

func TestAssessPositionWithoutStop(t *testing.T) {
	risk, trading := newRiskFixture(t, "1000")
	p := openPosition(t, trading, nil, nil)

	assessment, err := risk.AssessPosition(context.Background(), p)
	require.NoError(t, err)

	// No stop means the whole size is at risk.
	assert.True(t, assessment.StopLossRiskPercent.Equal(dec("100")))
	assert.True(t, assessment.MaxLossAmount.Equal(p.Size))
	assert.False(t, assessment.IsWithinRiskLimits)
	assert.Nil(t, assessment.RiskRewardRatio)
}

func TestAssessPositionRiskReward(t *testing.T) {
	risk, trading := newRiskFixture(t, "1000")
	stop, take := dec("980"), dec("1040")
	p := openPosition(t, trading, &stop, &take)

	assessment, err := risk.AssessPosition(context.Background(), p)
	require.NoError(t, err)

	require.NotNil(t, assessment.RiskRewardRatio)
	assert.True(t, assessment.RiskRewardRatio.Equal(dec("2")), "got %s", assessment.RiskRewardRatio)
}

func TestAssessPositionProfitLoss(t *testing.T) {
	risk, trading := newRiskFixture(t, "1100")
	p := openPosition(t, trading, nil, nil)

	assessment, err := risk.AssessPosition(context.Background(), p)
	require.NoError(t, err)

	// Long 2 @ 1000 marked at 1100.
	assert.True(t, assessment.CurrentProfitLoss.Equal(dec("200")))
	assert.True(t, assessment.CurrentProfitLossPercent.Equal(dec("10")))
}

func TestAssessClosedPosition(t *testing.T) {
	risk, trading := newRiskFixture(t, "1000")
	p := openPosition(t, trading, nil, nil)

	closed, err := trading.ClosePosition(context.Background(), p.ID, dec("1100"))
	require.NoError(t, err)

	_, err = risk.AssessPosition(context.Background(), closed)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestMaxPositionSize(t *testing.T) {
	risk, _ := newRiskFixture(t, "2000")

	size, err := risk.MaxPositionSize(context.Background(), domain.SymbolXAUUSD, dec("2"))
	require.NoError(t, err)
	// 2% of 10000 = 200 risked over a 2% stop distance of 40.
	assert.True(t, size.Equal(dec("5")), "got %s", size)

	_, err = risk.MaxPositionSize(context.Background(), domain.SymbolXAUUSD, dec("11"))
	require.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = risk.MaxPositionSize(context.Background(), domain.SymbolXAUUSD, decimal.Zero)
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestExposureAndAccountLimits(t *testing.T) {
	risk, trading := newRiskFixture(t, "1000")
	openPosition(t, trading, nil, nil)
	openPosition(t, trading, nil, nil)

	exposure, err := risk.ExposureBySymbol(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, exposure[domain.SymbolXAUUSD].Equal(dec("4")))

	ok, err := risk.IsWithinAccountLimits(context.Background(), 1, domain.SymbolXAUUSD, dec("100"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = risk.IsWithinAccountLimits(context.Background(), 1, domain.SymbolXAUUSD, dec("3000"))
	require.NoError(t, err)
	assert.False(t, ok, "3004 in one symbol exceeds the 20%% cap")
}

func TestPortfolioReport(t *testing.T) {
	risk, trading := newRiskFixture(t, "1000")
	stop := dec("980")
	openPosition(t, trading, &stop, nil)
	openPosition(t, trading, nil, nil)

	report, err := risk.PortfolioReport(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), report.UserID)
	require.Len(t, report.PositionRisks, 2)
	assert.True(t, report.TotalExposure.Equal(dec("4")))
	// 0.02*2 from the stopped position plus the full size 2 of the other.
	assert.True(t, report.TotalRisk.Equal(dec("2.04")), "got %s", report.TotalRisk)
}

func TestRiskyPositions(t *testing.T) {
	risk, trading := newRiskFixture(t, "1000")
	safeStop := dec("985")
	safe := openPosition(t, trading, &safeStop, nil)
	wideStop := dec("950")
	wide := openPosition(t, trading, &wideStop, nil)
	bare := openPosition(t, trading, nil, nil)

	risky, err := risk.RiskyPositions(context.Background(), 1)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, p := range risky {
		ids[p.ID] = true
	}
	assert.False(t, ids[safe.ID], "1.5%% stop risk is inside the 2%% limit")
	assert.True(t, ids[wide.ID], "5%% stop risk exceeds the limit")
	assert.True(t, ids[bare.ID], "no stop loss is always risky")
}
