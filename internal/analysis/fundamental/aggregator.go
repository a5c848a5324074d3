// Package fundamental builds normalized financial statement history from raw
// provider statement tables and screens it for data quality problems.
package fundamental

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/stocklyzer/stocklyzer/internal/config"
	"github.com/stocklyzer/stocklyzer/pkg/models"
)

// Field aliases, ordered by preference. Yahoo has shipped several naming
// generations for the same concepts; the first candidate present wins.
var (
	revenueKeys       = []string{"totalRevenue"}
	netIncomeKeys     = []string{"netIncome", "netIncomeApplicableToCommonShares"}
	assetsKeys        = []string{"totalAssets"}
	liabilitiesKeys   = []string{"totalLiab", "totalLiabilitiesNetMinorityInterest"}
	equityKeys        = []string{"totalStockholderEquity", "stockholdersEquity"}
	sharesKeys        = []string{"ordinarySharesNumber", "shareIssued"}
	operatingCFKeys   = []string{"totalCashFromOperatingActivities", "operatingCashFlow"}
	investingCFKeys   = []string{"totalCashflowsFromInvestingActivities", "investingCashFlow"}
	financingCFKeys   = []string{"totalCashFromFinancingActivities", "financingCashFlow"}
	changesInCashKeys = []string{"changeInCash", "changesInCash"}
	freeCashFlowKeys  = []string{"freeCashflow", "freeCashFlow"}
	capexKeys         = []string{"capitalExpenditures", "capitalExpenditure"}
)

// Aggregator merges raw statement tables into FinancialHistory values.
type Aggregator struct {
	cfg    config.AnalysisConfig
	logger *zap.Logger
}

// NewAggregator creates an aggregator with the given analysis settings.
func NewAggregator(cfg config.AnalysisConfig, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{cfg: cfg, logger: logger}
}

// BuildHistory merges income, balance sheet, and cash flow tables by period
// end date into a normalized FinancialHistory. Periods that resolve to no
// values at all are skipped; the result is most-recent-first and capped.
func (a *Aggregator) BuildHistory(symbol, periodType string, raw *models.StatementHistory) *models.FinancialHistory {
	if raw == nil {
		return models.NewFinancialHistory(symbol, periodType, nil)
	}

	income := indexByDate(raw.Income)
	balance := indexByDate(raw.BalanceSheet)
	cashflow := indexByDate(raw.CashFlow)

	dates := mergeDates(raw.Income, raw.BalanceSheet, raw.CashFlow)

	periods := make([]models.FinancialPeriod, 0, len(dates))
	for _, d := range dates {
		rp := models.RawPeriod{EndDate: d}
		key := d.Format("2006-01-02")

		if fields, ok := income[key]; ok {
			rp.TotalRevenue = resolve(fields, revenueKeys)
			rp.NetIncome = resolve(fields, netIncomeKeys)
		}
		if fields, ok := balance[key]; ok {
			rp.TotalAssets = resolve(fields, assetsKeys)
			rp.TotalLiabilities = resolve(fields, liabilitiesKeys)
			rp.TotalEquity = resolve(fields, equityKeys)
			if s := resolve(fields, sharesKeys); s != nil {
				n := int64(*s)
				rp.SharesOutstanding = &n
			}
		}
		if fields, ok := cashflow[key]; ok {
			rp.OperatingCashFlow = resolve(fields, operatingCFKeys)
			rp.InvestingCashFlow = resolve(fields, investingCFKeys)
			rp.FinancingCashFlow = resolve(fields, financingCFKeys)
			rp.ChangesInCash = resolve(fields, changesInCashKeys)
			rp.FreeCashFlow = deriveFreeCashFlow(fields)
		}

		if isEmpty(rp) {
			a.logger.Debug("skipping empty statement period",
				zap.String("symbol", symbol),
				zap.String("period_type", periodType),
				zap.String("end_date", key),
			)
			continue
		}
		periods = append(periods, models.NewFinancialPeriod(rp))
	}

	if max := a.cfg.MaxPeriods; max > 0 && len(periods) > max {
		periods = periods[:max]
	}
	return models.NewFinancialHistory(symbol, periodType, periods)
}

// QualityWarnings screens the two most recent periods of each history for
// values implausibly large relative to market cap, which usually means the
// provider mixed up units or currencies. At most MaxQualityWarnings are
// returned.
func (a *Aggregator) QualityWarnings(annual, quarterly *models.FinancialHistory, marketCap int64) []string {
	if marketCap <= 0 {
		return nil
	}
	mc := float64(marketCap)
	var warnings []string

	add := func(w string) {
		if len(warnings) < a.cfg.MaxQualityWarnings {
			warnings = append(warnings, w)
		}
	}

	check := func(h *models.FinancialHistory, revenueCap float64, label string) {
		if h == nil {
			return
		}
		n := len(h.Periods)
		if n > 2 {
			n = 2
		}
		for i := 0; i < n; i++ {
			p := h.Periods[i]
			if p.TotalRevenue != nil {
				rev, _ := p.TotalRevenue.Float64()
				if rev*1e6 > revenueCap*mc {
					add(fmt.Sprintf("%s revenue for %s is over %.0fx market cap; values may be misreported",
						label, p.EndDate.Format("2006-01-02"), revenueCap))
				}
			}
			if p.TotalAssets != nil {
				assets, _ := p.TotalAssets.Float64()
				if assets*1e6 > a.cfg.AssetsCapX*mc {
					add(fmt.Sprintf("%s total assets for %s are over %.0fx market cap; values may be misreported",
						label, p.EndDate.Format("2006-01-02"), a.cfg.AssetsCapX))
				}
			}
		}
	}

	check(annual, a.cfg.AnnualRevenueCapX, "annual")
	check(quarterly, a.cfg.QuarterlyRevenueCapX, "quarterly")
	return warnings
}

// deriveFreeCashFlow prefers the provider's own free cash flow field and
// falls back to operating cash flow plus capex. Capex is reported negative,
// so the sum is the conventional OCF minus capex spend.
func deriveFreeCashFlow(fields map[string]float64) *float64 {
	if v := resolve(fields, freeCashFlowKeys); v != nil {
		return v
	}
	ocf := resolve(fields, operatingCFKeys)
	capex := resolve(fields, capexKeys)
	if ocf == nil || capex == nil {
		return nil
	}
	fcf := *ocf + *capex
	return &fcf
}

func resolve(fields map[string]float64, keys []string) *float64 {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return &v
		}
	}
	return nil
}

func indexByDate(periods []models.StatementPeriod) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(periods))
	for _, p := range periods {
		out[p.EndDate.Format("2006-01-02")] = p.Fields
	}
	return out
}

// mergeDates collects the distinct end dates across all statements, newest
// first.
func mergeDates(lists ...[]models.StatementPeriod) []time.Time {
	seen := make(map[string]time.Time)
	for _, list := range lists {
		for _, p := range list {
			seen[p.EndDate.Format("2006-01-02")] = p.EndDate
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates
}

func isEmpty(rp models.RawPeriod) bool {
	return rp.TotalRevenue == nil && rp.NetIncome == nil &&
		rp.TotalAssets == nil && rp.TotalLiabilities == nil &&
		rp.TotalEquity == nil && rp.SharesOutstanding == nil &&
		rp.OperatingCashFlow == nil && rp.InvestingCashFlow == nil &&
		rp.FinancingCashFlow == nil && rp.ChangesInCash == nil &&
		rp.FreeCashFlow == nil
}
