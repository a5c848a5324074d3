// Package service assembles the full stock report: it fans out to the data
// source, runs the analysis layers, and joins the results into a StockInfo.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stocklyzer/stocklyzer/internal/analysis/dcf"
	"github.com/stocklyzer/stocklyzer/internal/analysis/fundamental"
	"github.com/stocklyzer/stocklyzer/internal/analysis/growth"
	"github.com/stocklyzer/stocklyzer/internal/config"
	"github.com/stocklyzer/stocklyzer/internal/datasource"
	"github.com/stocklyzer/stocklyzer/pkg/models"
	"github.com/stocklyzer/stocklyzer/pkg/utils"
)

// peUpperBound is the sanity cap on trailing P/E. Ratios beyond it are
// provider glitches more often than real valuations.
const peUpperBound = 1000

// Service orchestrates fetching and analysis for one symbol at a time.
type Service struct {
	source     datasource.MarketData
	growthCalc *growth.Calculator
	aggregator *fundamental.Aggregator
	estimator  *dcf.Estimator
	logger     *zap.Logger
}

// New wires a Service from configuration and a data source.
func New(cfg *config.Config, source datasource.MarketData, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:     source,
		growthCalc: growth.NewCalculator(source, logger),
		aggregator: fundamental.NewAggregator(cfg.Analysis, logger),
		estimator:  dcf.NewEstimator(cfg.Valuation, source, logger),
		logger:     logger,
	}
}

// AnalyzeStock builds the complete report record for a symbol. The snapshot
// fetch is required; every other input degrades to nil fields on failure.
func (s *Service) AnalyzeStock(ctx context.Context, symbol string) (*models.StockInfo, error) {
	sym, err := utils.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	var (
		snap      *models.Snapshot
		metrics   *models.GrowthMetrics
		annualRaw *models.StatementHistory
		quartRaw  *models.StatementHistory
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = s.source.GetSnapshot(gctx, sym)
		return err
	})
	g.Go(func() error {
		var err error
		metrics, err = s.growthCalc.Calculate(gctx, sym)
		return err
	})
	g.Go(func() error {
		var err error
		annualRaw, err = s.source.GetStatements(gctx, sym, false)
		if err != nil {
			s.logger.Warn("annual statements unavailable", zap.String("symbol", sym), zap.Error(err))
			annualRaw, err = nil, nil
		}
		return err
	})
	g.Go(func() error {
		var err error
		quartRaw, err = s.source.GetStatements(gctx, sym, true)
		if err != nil {
			s.logger.Warn("quarterly statements unavailable", zap.String("symbol", sym), zap.Error(err))
			quartRaw, err = nil, nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	info := &models.StockInfo{
		Symbol:      sym,
		CompanyName: snap.Name,
		Sector:      snap.Sector,
		QuoteType:   snap.QuoteType,
		Category:    snap.Category,
		Volume:      snap.Volume,
		LastUpdated: time.Now().UTC(),

		CurrentPrice: decimal.NewFromFloat(snap.CurrentPrice).Round(2),
		OpenPrice:    decimal.NewFromFloat(snap.Open).Round(2),
		HighPrice:    decimal.NewFromFloat(snap.DayHigh).Round(2),
		LowPrice:     decimal.NewFromFloat(snap.DayLow).Round(2),

		GrowthMetrics: metrics,
	}

	if snap.PreviousClose > 0 {
		change := decimal.NewFromFloat(snap.CurrentPrice).Sub(decimal.NewFromFloat(snap.PreviousClose))
		info.Change = change.Round(2)
		info.ChangePercent = change.Div(decimal.NewFromFloat(snap.PreviousClose)).
			Mul(decimal.NewFromInt(100)).Round(2)
	}

	if snap.MarketCap > 0 {
		mc := snap.MarketCap
		info.MarketCap = &mc
	}
	info.PERatio = sanitizedPE(snap)
	if snap.EPS != 0 {
		eps := decimal.NewFromFloat(snap.EPS).Round(2)
		info.EPS = &eps
	}
	if snap.BookValue != 0 {
		bv := decimal.NewFromFloat(snap.BookValue).Round(2)
		info.BookValue = &bv
	}

	info.DividendYield = normalizedDividendYield(snap.DividendYield)
	if snap.DividendRate > 0 {
		dr := decimal.NewFromFloat(snap.DividendRate).Round(2)
		info.DividendRate = &dr
	}
	if !snap.ExDividendDate.IsZero() {
		d := snap.ExDividendDate
		info.ExDividendDate = &d
	}

	if pr, err := models.NewPriceRange(
		decimal.NewFromFloat(snap.Week52Low),
		decimal.NewFromFloat(snap.Week52High),
		decimal.NewFromFloat(snap.DayLow),
		decimal.NewFromFloat(snap.DayHigh),
	); err != nil {
		s.logger.Warn("price range unavailable", zap.String("symbol", sym), zap.Error(err))
	} else {
		info.PriceRange = pr
	}

	info.AnnualHistory = s.aggregator.BuildHistory(sym, "annual", annualRaw)
	info.QuarterlyHistory = s.aggregator.BuildHistory(sym, "quarterly", quartRaw)
	info.QualityWarnings = s.aggregator.QualityWarnings(info.AnnualHistory, info.QuarterlyHistory, snap.MarketCap)
	info.WACC = s.estimator.Estimate(ctx, snap, annualRaw)

	info.DataQualityScore = qualityScore(info)

	s.logger.Info("stock analysis complete",
		zap.String("symbol", sym),
		zap.Float64("data_quality", info.DataQualityScore),
		zap.Int("quality_warnings", len(info.QualityWarnings)),
	)
	return info, nil
}

// sanitizedPE applies the trailing P/E business rule: the ratio is dropped
// when earnings are non-positive or the ratio falls outside (0, 1000].
// Yahoo reports a stale positive P/E for loss-making companies, hence the
// EPS gate.
func sanitizedPE(snap *models.Snapshot) *decimal.Decimal {
	if snap.EPS <= 0 {
		return nil
	}
	if snap.TrailingPE <= 0 || snap.TrailingPE > peUpperBound {
		return nil
	}
	pe := decimal.NewFromFloat(snap.TrailingPE).Round(2)
	return &pe
}

// normalizedDividendYield returns the yield as a percentage. The provider
// sometimes reports a ratio (0.0051) and sometimes a percentage (0.51);
// anything above 0.20 is assumed to already be a percentage. Yields between
// 20% and not-quite-ratio territory are therefore ambiguous; that is a known
// limitation of the heuristic.
func normalizedDividendYield(yield float64) *decimal.Decimal {
	if yield <= 0 {
		return nil
	}
	d := decimal.NewFromFloat(yield)
	if yield <= 0.20 {
		d = d.Mul(decimal.NewFromInt(100))
	}
	d = d.Round(2)
	return &d
}

// qualityScore reports the fraction of six key report fields that are
// populated: market cap, P/E, EPS, book value, sector, and 1-year growth.
func qualityScore(info *models.StockInfo) float64 {
	present := 0
	if info.MarketCap != nil {
		present++
	}
	if info.PERatio != nil {
		present++
	}
	if info.EPS != nil {
		present++
	}
	if info.BookValue != nil {
		present++
	}
	if info.Sector != "" {
		present++
	}
	if info.GrowthMetrics != nil && info.GrowthMetrics.OneYear != nil {
		present++
	}
	return float64(present) / 6
}
