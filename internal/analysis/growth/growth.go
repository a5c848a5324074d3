// Package growth computes windowed price growth from daily bar history.
package growth

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stocklyzer/stocklyzer/internal/datasource"
	"github.com/stocklyzer/stocklyzer/pkg/models"
)

// sufficiencyRatio is the minimum share of a lookback window the available
// history must span before the window is computed. Anything shorter would
// silently measure a different period than the label claims.
const sufficiencyRatio = 0.8

// barRange covers the longest lookback window, so one fetch serves them all.
const barRange = "10y"

// Calculator computes GrowthMetrics for a symbol.
type Calculator struct {
	source datasource.MarketData
	logger *zap.Logger
}

// NewCalculator creates a growth calculator backed by the given data source.
func NewCalculator(source datasource.MarketData, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{source: source, logger: logger}
}

// Calculate returns growth metrics for the fixed lookback windows. A nil
// result (with nil error) means no usable price history; individual windows
// are nil when history is too short for them.
func (c *Calculator) Calculate(ctx context.Context, symbol string) (*models.GrowthMetrics, error) {
	bars, err := c.source.GetDailyBars(ctx, symbol, barRange)
	if err != nil {
		c.logger.Warn("price history unavailable",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return nil, nil
	}
	if len(bars) < 2 {
		return nil, nil
	}

	now := time.Now().UTC()
	g := models.NewGrowthMetrics(
		windowGrowth(bars, now, 1),
		windowGrowth(bars, now, 2),
		windowGrowth(bars, now, 3),
		windowGrowth(bars, now, 5),
		windowGrowth(bars, now, 10),
	)
	g.SuppressUnreliable()
	return g, nil
}

// windowGrowth computes percentage price growth over a lookback of the given
// number of years. Bars are oldest first. Returns nil when the history does
// not span at least sufficiencyRatio of the window, or when no usable start
// price exists.
func windowGrowth(bars []models.Bar, now time.Time, years int) *decimal.Decimal {
	if len(bars) < 2 {
		return nil
	}

	required := time.Duration(float64(years)*365*sufficiencyRatio*24) * time.Hour
	if now.Sub(bars[0].Date) < required {
		return nil
	}

	windowStart := now.AddDate(0, 0, -years*365)
	var startClose float64
	for _, b := range bars {
		if !b.Date.Before(windowStart) {
			startClose = b.Close
			break
		}
	}
	if startClose <= 0 {
		return nil
	}

	last := bars[len(bars)-1].Close
	if last <= 0 {
		return nil
	}

	g := decimal.NewFromFloat(last).
		Sub(decimal.NewFromFloat(startClose)).
		Div(decimal.NewFromFloat(startClose)).
		Mul(decimal.NewFromInt(100))
	return &g
}
