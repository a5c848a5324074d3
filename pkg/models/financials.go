package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxPeriods caps how many reporting periods a FinancialHistory retains.
const MaxPeriods = 4

// StatementPeriod is one reporting column of a raw provider statement:
// provider field name -> reported value, untouched by normalization.
type StatementPeriod struct {
	EndDate time.Time          `json:"end_date"`
	Fields  map[string]float64 `json:"fields"`
}

// StatementHistory bundles the three raw statement tables for one symbol,
// each ordered most-recent-first as delivered by the provider.
type StatementHistory struct {
	Income       []StatementPeriod `json:"income"`
	BalanceSheet []StatementPeriod `json:"balance_sheet"`
	CashFlow     []StatementPeriod `json:"cash_flow"`
}

// RawPeriod carries the resolved but un-normalized values for one reporting
// period. Nil means the concept was absent from every candidate field.
type RawPeriod struct {
	EndDate           time.Time
	TotalRevenue      *float64
	NetIncome         *float64
	TotalAssets       *float64
	TotalLiabilities  *float64
	TotalEquity       *float64
	SharesOutstanding *int64
	OperatingCashFlow *float64
	InvestingCashFlow *float64
	FinancingCashFlow *float64
	ChangesInCash     *float64
	FreeCashFlow      *float64
}

// FinancialPeriod is one normalized reporting period. Monetary values are in
// millions, rounded to two decimal places. Nil means not reported.
type FinancialPeriod struct {
	EndDate           time.Time        `json:"end_date"`
	TotalRevenue      *decimal.Decimal `json:"total_revenue,omitempty"`
	NetIncome         *decimal.Decimal `json:"net_income,omitempty"`
	TotalAssets       *decimal.Decimal `json:"total_assets,omitempty"`
	TotalLiabilities  *decimal.Decimal `json:"total_liabilities,omitempty"`
	TotalEquity       *decimal.Decimal `json:"total_equity,omitempty"`
	SharesOutstanding *int64           `json:"shares_outstanding,omitempty"`
	OperatingCashFlow *decimal.Decimal `json:"operating_cash_flow,omitempty"`
	InvestingCashFlow *decimal.Decimal `json:"investing_cash_flow,omitempty"`
	FinancingCashFlow *decimal.Decimal `json:"financing_cash_flow,omitempty"`
	ChangesInCash     *decimal.Decimal `json:"changes_in_cash,omitempty"`
	FreeCashFlow      *decimal.Decimal `json:"free_cash_flow,omitempty"`
}

// millionsThreshold separates full-unit provider values from values already
// reported in millions. Compared on magnitude so losses normalize too.
var millionsThreshold = decimal.NewFromInt(1_000_000)

// NewFinancialPeriod normalizes a resolved raw period into the domain shape:
// every monetary value whose magnitude exceeds one million is divided by 1e6,
// then rounded to two decimal places. Share counts pass through unscaled.
func NewFinancialPeriod(raw RawPeriod) FinancialPeriod {
	return FinancialPeriod{
		EndDate:           raw.EndDate,
		TotalRevenue:      toMillions(raw.TotalRevenue),
		NetIncome:         toMillions(raw.NetIncome),
		TotalAssets:       toMillions(raw.TotalAssets),
		TotalLiabilities:  toMillions(raw.TotalLiabilities),
		TotalEquity:       toMillions(raw.TotalEquity),
		SharesOutstanding: raw.SharesOutstanding,
		OperatingCashFlow: toMillions(raw.OperatingCashFlow),
		InvestingCashFlow: toMillions(raw.InvestingCashFlow),
		FinancingCashFlow: toMillions(raw.FinancingCashFlow),
		ChangesInCash:     toMillions(raw.ChangesInCash),
		FreeCashFlow:      toMillions(raw.FreeCashFlow),
	}
}

func toMillions(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	if d.Abs().GreaterThan(millionsThreshold) {
		d = d.Div(millionsThreshold)
	}
	d = d.Round(2)
	return &d
}

// FinancialHistory is a bounded, most-recent-first series of normalized
// reporting periods of one cadence (annual or quarterly).
type FinancialHistory struct {
	Symbol     string            `json:"symbol"`
	PeriodType string            `json:"period_type"` // "annual" or "quarterly"
	Periods    []FinancialPeriod `json:"periods"`
}

// NewFinancialHistory truncates periods beyond MaxPeriods.
func NewFinancialHistory(symbol, periodType string, periods []FinancialPeriod) *FinancialHistory {
	if len(periods) > MaxPeriods {
		periods = periods[:MaxPeriods]
	}
	return &FinancialHistory{Symbol: symbol, PeriodType: periodType, Periods: periods}
}

// Latest returns the most recent period, or nil when the history is empty.
func (h *FinancialHistory) Latest() *FinancialPeriod {
	if len(h.Periods) == 0 {
		return nil
	}
	return &h.Periods[0]
}

// RevenueGrowth returns period-over-period revenue growth percentages.
func (h *FinancialHistory) RevenueGrowth() []*decimal.Decimal {
	return h.growthSeries(func(p *FinancialPeriod) *decimal.Decimal { return p.TotalRevenue })
}

// NetIncomeGrowth returns period-over-period net income growth percentages.
func (h *FinancialHistory) NetIncomeGrowth() []*decimal.Decimal {
	return h.growthSeries(func(p *FinancialPeriod) *decimal.Decimal { return p.NetIncome })
}

// AssetsGrowth returns period-over-period total asset growth percentages.
func (h *FinancialHistory) AssetsGrowth() []*decimal.Decimal {
	return h.growthSeries(func(p *FinancialPeriod) *decimal.Decimal { return p.TotalAssets })
}

// LiabilitiesGrowth returns period-over-period total liability growth.
func (h *FinancialHistory) LiabilitiesGrowth() []*decimal.Decimal {
	return h.growthSeries(func(p *FinancialPeriod) *decimal.Decimal { return p.TotalLiabilities })
}

// EquityGrowth returns period-over-period total equity growth.
func (h *FinancialHistory) EquityGrowth() []*decimal.Decimal {
	return h.growthSeries(func(p *FinancialPeriod) *decimal.Decimal { return p.TotalEquity })
}

// OperatingCashFlowGrowth returns period-over-period operating cash flow growth.
func (h *FinancialHistory) OperatingCashFlowGrowth() []*decimal.Decimal {
	return h.growthSeries(func(p *FinancialPeriod) *decimal.Decimal { return p.OperatingCashFlow })
}

// FreeCashFlowGrowth returns period-over-period free cash flow growth.
func (h *FinancialHistory) FreeCashFlowGrowth() []*decimal.Decimal {
	return h.growthSeries(func(p *FinancialPeriod) *decimal.Decimal { return p.FreeCashFlow })
}

// SharesGrowth returns period-over-period share count growth percentages.
func (h *FinancialHistory) SharesGrowth() []*decimal.Decimal {
	return h.growthSeries(func(p *FinancialPeriod) *decimal.Decimal {
		if p.SharesOutstanding == nil {
			return nil
		}
		d := decimal.NewFromInt(*p.SharesOutstanding)
		return &d
	})
}

// growthSeries computes growth for each period against the next-older one:
// (current - previous) / |previous| x 100, rounded to one decimal place.
// The result has len(Periods)-1 entries, entry i pairing period i with
// period i+1; an entry is nil when either value is missing or the previous
// value is zero.
func (h *FinancialHistory) growthSeries(get func(*FinancialPeriod) *decimal.Decimal) []*decimal.Decimal {
	if len(h.Periods) < 2 {
		return nil
	}
	out := make([]*decimal.Decimal, len(h.Periods)-1)
	for i := 0; i < len(h.Periods)-1; i++ {
		cur := get(&h.Periods[i])
		prev := get(&h.Periods[i+1])
		if cur == nil || prev == nil || prev.IsZero() {
			continue
		}
		g := cur.Sub(*prev).Div(prev.Abs()).Mul(decimal.NewFromInt(100)).Round(1)
		out[i] = &g
	}
	return out
}
