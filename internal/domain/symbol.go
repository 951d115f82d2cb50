package domain

import "fmt"

// Symbol is the closed set of instruments the platform trades.
type Symbol string

const (
	SymbolXAUUSD Symbol = "XAUUSD"
	SymbolXAGUSD Symbol = "XAGUSD"
	SymbolEURUSD Symbol = "EURUSD"
	SymbolGBPUSD Symbol = "GBPUSD"
	SymbolUSDJPY Symbol = "USDJPY"
	SymbolBTCUSD Symbol = "BTCUSD"
	SymbolETHUSD Symbol = "ETHUSD"
)

// Symbols lists every supported instrument.
func Symbols() []Symbol {
	return []Symbol{
		SymbolXAUUSD, SymbolXAGUSD, SymbolEURUSD, SymbolGBPUSD,
		SymbolUSDJPY, SymbolBTCUSD, SymbolETHUSD,
	}
}

// ParseSymbol validates a raw string against the closed symbol set.
func ParseSymbol(raw string) (Symbol, error) {
	s := Symbol(raw)
	switch s {
	case SymbolXAUUSD, SymbolXAGUSD, SymbolEURUSD, SymbolGBPUSD,
		SymbolUSDJPY, SymbolBTCUSD, SymbolETHUSD:
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown symbol %q", ErrInvalidParameter, raw)
}

// VolatilityFactor returns the per-tick volatility used by the price
// simulator. Different assets move at very different daily ranges.
func (s Symbol) VolatilityFactor() float64 {
	switch s {
	case SymbolXAUUSD:
		return 0.001 // 0.1%
	case SymbolXAGUSD:
		return 0.002 // 0.2%
	case SymbolEURUSD:
		return 0.0005 // 0.05%
	case SymbolGBPUSD:
		return 0.0007 // 0.07%
	case SymbolUSDJPY:
		return 0.0006 // 0.06%
	case SymbolBTCUSD:
		return 0.01 // 1%
	case SymbolETHUSD:
		return 0.015 // 1.5%
	default:
		return 0.001
	}
}
