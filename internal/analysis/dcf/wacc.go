// Package dcf estimates a company's weighted average cost of capital from
// its statement history and the prevailing treasury yield.
package dcf

import (
	"context"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stocklyzer/stocklyzer/internal/config"
	"github.com/stocklyzer/stocklyzer/internal/datasource"
	"github.com/stocklyzer/stocklyzer/pkg/models"
)

// Statement field candidates, ordered by preference.
var (
	interestKeys         = []string{"interestExpense"}
	cashflowInterestKeys = []string{"interestPaidSupplementalData", "interestPaidSupplemental"}
	longTermDebtKeys     = []string{"longTermDebt"}
	currentDebtKeys      = []string{"shortLongTermDebt", "currentDebt"}
	totalDebtKeys        = []string{"totalDebt"}
	taxKeys              = []string{"incomeTaxExpense", "taxProvision"}
	pretaxKeys           = []string{"incomeBeforeTax", "pretaxIncome"}
)

// Estimator computes WACC estimates.
type Estimator struct {
	cfg    config.ValuationConfig
	source datasource.MarketData
	logger *zap.Logger
}

// NewEstimator creates a WACC estimator.
func NewEstimator(cfg config.ValuationConfig, source datasource.MarketData, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{cfg: cfg, source: source, logger: logger}
}

// Estimate returns the WACC for a symbol as a fraction rounded to four
// decimal places, or nil when any required input (treasury yield, market
// cap, a usable interest/debt pair) is unavailable.
func (e *Estimator) Estimate(ctx context.Context, snap *models.Snapshot, annual *models.StatementHistory) *decimal.Decimal {
	if snap == nil || snap.MarketCap <= 0 {
		return nil
	}

	treasury, err := e.source.GetTreasuryYield(ctx)
	if err != nil {
		e.logger.Warn("treasury yield unavailable, skipping WACC",
			zap.String("symbol", snap.Symbol),
			zap.Error(err),
		)
		return nil
	}

	beta := snap.Beta
	if beta <= 0 {
		beta = e.cfg.DefaultBeta
	}
	coe := costOfEquity(beta, treasury, e.cfg.RequiredReturn)

	cod, debt, ok := costOfDebt(annual)
	if !ok {
		e.logger.Debug("no usable interest/debt pair, skipping WACC",
			zap.String("symbol", snap.Symbol),
		)
		return nil
	}

	mcap := float64(snap.MarketCap)
	total := debt + mcap
	wacc := cod*(debt/total) + coe*(mcap/total)

	d := decimal.NewFromFloat(wacc).Round(4)
	return &d
}

// costOfEquity applies CAPM: risk-free plus beta times the equity premium
// over the risk-free rate.
func costOfEquity(beta, treasury, requiredReturn float64) float64 {
	return treasury + beta*(requiredReturn-treasury)
}

// costOfDebt scans annual periods newest to oldest for an interest expense
// that can be paired with same-year balance sheet debt, and returns the
// after-tax cost of debt and the paired total debt. Interest comes from the
// income statement first, then from the cash flow statement's supplemental
// interest-paid field. The tax adjustment is skipped when tax or pretax
// income is unavailable or pretax income is zero.
func costOfDebt(annual *models.StatementHistory) (cod, debt float64, ok bool) {
	if annual == nil {
		return 0, 0, false
	}
	balanceByYear := indexByYear(annual.BalanceSheet)
	incomeByYear := indexByYear(annual.Income)
	cashflowByYear := indexByYear(annual.CashFlow)

	for _, year := range yearsNewestFirst(annual.Income, annual.CashFlow) {
		interest := lookup(incomeByYear[year], interestKeys)
		if interest == nil {
			interest = lookup(cashflowByYear[year], cashflowInterestKeys)
		}
		if interest == nil || *interest == 0 {
			continue
		}
		balance, found := balanceByYear[year]
		if !found {
			continue
		}
		totalDebt := pairedDebt(balance)
		if totalDebt <= 0 {
			continue
		}

		cod = math.Abs(*interest) / totalDebt

		tax := lookup(incomeByYear[year], taxKeys)
		pretax := lookup(incomeByYear[year], pretaxKeys)
		if tax != nil && pretax != nil && *pretax != 0 {
			cod *= 1 - *tax / *pretax
		}
		return cod, totalDebt, true
	}
	return 0, 0, false
}

// pairedDebt sums long-term and current debt when both components are
// reported, otherwise falls back to the totalDebt aggregate field. A single
// component on its own is not used: it understates debt and inflates the
// cost of debt.
func pairedDebt(fields map[string]float64) float64 {
	long := lookup(fields, longTermDebtKeys)
	current := lookup(fields, currentDebtKeys)
	if long != nil && current != nil {
		return *long + *current
	}
	if v := lookup(fields, totalDebtKeys); v != nil {
		return *v
	}
	return 0
}

func indexByYear(periods []models.StatementPeriod) map[int]map[string]float64 {
	out := make(map[int]map[string]float64, len(periods))
	for _, p := range periods {
		out[p.EndDate.Year()] = p.Fields
	}
	return out
}

// yearsNewestFirst collects the distinct period years across the given
// statement lists, newest first.
func yearsNewestFirst(lists ...[]models.StatementPeriod) []int {
	seen := make(map[int]bool)
	var years []int
	for _, list := range lists {
		for _, p := range list {
			if y := p.EndDate.Year(); !seen[y] {
				seen[y] = true
				years = append(years, y)
			}
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

func lookup(fields map[string]float64, keys []string) *float64 {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return &v
		}
	}
	return nil
}
