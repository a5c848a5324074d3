// Package datasource provides market data fetching. It defines the
// MarketData interface consumed by the analysis layers and implements it
// against the Yahoo Finance v8 chart and v10 quoteSummary endpoints.
package datasource

import (
	"context"
	"fmt"

	"github.com/stocklyzer/stocklyzer/pkg/models"
)

// MarketData is the provider interface consumed by the service layer.
type MarketData interface {
	// Name returns the human-readable name of this data source.
	Name() string

	// GetSnapshot returns the current fundamentals snapshot for a symbol.
	GetSnapshot(ctx context.Context, symbol string) (*models.Snapshot, error)

	// GetDailyBars returns daily OHLCV bars covering the given range
	// (e.g. "1y", "10y"), oldest first.
	GetDailyBars(ctx context.Context, symbol, rng string) ([]models.Bar, error)

	// GetStatements returns the raw annual and quarterly statement tables.
	GetStatements(ctx context.Context, symbol string, quarterly bool) (*models.StatementHistory, error)

	// GetTreasuryYield returns the current 10-year treasury yield as a
	// fraction (0.045 for 4.5%).
	GetTreasuryYield(ctx context.Context) (float64, error)
}

// ErrSymbolNotFound is returned when the provider cannot resolve a symbol.
var ErrSymbolNotFound = fmt.Errorf("symbol not found")

// ErrNoData is returned when the provider resolved the symbol but delivered
// an empty payload.
var ErrNoData = fmt.Errorf("no data returned")
