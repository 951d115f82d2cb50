package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xaubot/xaubot/internal/domain"
	"github.com/xaubot/xaubot/internal/infrastructure/market"
	"github.com/xaubot/xaubot/internal/usecase"
)

func main() {
	var (
		symbolFlag  = flag.String("symbol", "XAUUSD", "symbol to backtest")
		csvPath     = flag.String("csv", "", "candle csv (time,open,high,low,close,volume); simulated history when empty")
		fastPeriod  = flag.Int("fast", 10, "fast SMA period")
		slowPeriod  = flag.Int("slow", 50, "slow SMA period")
		days        = flag.Int("days", 365, "days of simulated history")
		balanceFlag = flag.Float64("balance", 10000, "initial balance")
		seed        = flag.Int64("seed", 42, "simulator seed")
	)
	flag.Parse()

	symbol, err := domain.ParseSymbol(*symbolFlag)
	if err != nil {
		fmt.Printf("Invalid symbol: %v\n", err)
		os.Exit(1)
	}

	var candles []domain.Candle
	if *csvPath != "" {
		candles, err = loadCandles(*csvPath)
	} else {
		sim := market.NewSimulator(*seed, 0, zap.NewNop())
		to := time.Now().UTC()
		candles, err = sim.History(context.Background(), symbol, to.AddDate(0, 0, -*days), to)
	}
	if err != nil {
		fmt.Printf("Failed to load candles: %v\n", err)
		os.Exit(1)
	}

	params := usecase.DefaultStrategyParams()
	params.FastPeriod = *fastPeriod
	params.SlowPeriod = *slowPeriod

	runner := usecase.NewBacktestRunner(usecase.BacktestConfig{
		InitialBalance: decimal.NewFromFloat(*balanceFlag),
	})
	result, err := runner.Run(symbol, candles, params)
	if err != nil {
		fmt.Printf("Backtest failed: %v\n", err)
		os.Exit(1)
	}

	strategy, err := usecase.NewMovingAverageStrategy(params)
	if err != nil {
		fmt.Printf("Invalid strategy parameters: %v\n", err)
		os.Exit(1)
	}
	crossovers, err := strategy.Crossovers(candles)
	if err != nil {
		fmt.Printf("Crossover scan failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Backtest %s  %s .. %s  (%d candles, %d crossovers)\n",
		result.Symbol,
		result.StartDate.Format("2006-01-02"), result.EndDate.Format("2006-01-02"),
		len(candles), len(crossovers))
	fmt.Println("--------------------------------------------------------------")
	fmt.Printf("%-18s %s\n", "Trades:", fmt.Sprintf("%d (%d won / %d lost)", result.TotalSignals, result.WinningTrades, result.LosingTrades))
	fmt.Printf("%-18s %s%%\n", "Win rate:", result.WinRate.Mul(decimal.NewFromInt(100)).StringFixed(2))
	fmt.Printf("%-18s %s\n", "Initial balance:", result.InitialBalance.StringFixed(2))
	fmt.Printf("%-18s %s\n", "Final balance:", result.FinalBalance.StringFixed(2))
	fmt.Printf("%-18s %s\n", "Net profit:", result.NetProfit.StringFixed(2))
	fmt.Printf("%-18s %s\n", "Profit factor:", result.ProfitFactor.StringFixed(4))
	fmt.Printf("%-18s %s%%\n", "Max drawdown:", result.MaxDrawdown.StringFixed(2))

	if len(result.Trades) == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("%-12s | %-5s | %-12s | %-12s | %-12s | %s\n", "Entry", "Side", "Entry price", "Exit price", "P/L", "Exit reason")
	fmt.Println("--------------------------------------------------------------------------------")
	for _, t := range result.Trades {
		exitPrice, pl := "-", "-"
		if t.ExitPrice != nil {
			exitPrice = t.ExitPrice.StringFixed(4)
		}
		if t.ProfitLoss != nil {
			pl = t.ProfitLoss.StringFixed(2)
		}
		fmt.Printf("%-12s | %-5s | %-12s | %-12s | %-12s | %s\n",
			t.EntryTime.Format("2006-01-02"), t.Side, t.EntryPrice.StringFixed(4), exitPrice, pl, t.ExitReason)
	}
}

// loadCandles reads a headerless or headered csv of daily candles.
func loadCandles(path string) ([]domain.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	var candles []domain.Candle
	for i, rec := range records {
		if len(rec) < 6 {
			return nil, fmt.Errorf("line %d: expected 6 columns, have %d", i+1, len(rec))
		}
		ts, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		var values [5]decimal.Decimal
		for j, raw := range rec[1:6] {
			if values[j], err = decimal.NewFromString(raw); err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		candles = append(candles, domain.Candle{
			Time:   ts,
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}
	return candles, nil
}
