// Package models defines the core data structures used throughout stocklyzer.
//
// Two layers live here. The raw layer (Snapshot, Bar, StatementPeriod) mirrors
// provider payloads as plain float64 and never reaches the renderer directly.
// The domain layer (StockInfo, FinancialPeriod, GrowthMetrics, PriceRange)
// uses shopspring decimals and is normalized at construction.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the raw fundamentals snapshot returned by the market data
// provider for a single symbol. Zero values mean "not reported".
type Snapshot struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Sector    string `json:"sector"`
	QuoteType string `json:"quote_type"` // "EQUITY", "ETF", "MUTUALFUND", ...
	Category  string `json:"category"`   // fund category, ETFs only

	MarketCap  int64   `json:"market_cap"`
	TrailingPE float64 `json:"trailing_pe"`
	EPS        float64 `json:"eps"`
	BookValue  float64 `json:"book_value"`
	Beta       float64 `json:"beta"`

	DividendYield  float64   `json:"dividend_yield"`
	DividendRate   float64   `json:"dividend_rate"`
	ExDividendDate time.Time `json:"ex_dividend_date"`

	Week52Low  float64 `json:"week_52_low"`
	Week52High float64 `json:"week_52_high"`
	DayLow     float64 `json:"day_low"`
	DayHigh    float64 `json:"day_high"`

	CurrentPrice  float64 `json:"current_price"`
	PreviousClose float64 `json:"previous_close"`
	Open          float64 `json:"open"`
	Volume        int64   `json:"volume"`
}

// Bar is a single daily OHLCV bar from the provider's chart endpoint.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// GrowthMetrics holds price growth percentages over the fixed lookback
// windows. A nil entry means the window could not be computed.
type GrowthMetrics struct {
	OneYear    *decimal.Decimal `json:"one_year"`
	TwoYears   *decimal.Decimal `json:"two_years"`
	ThreeYears *decimal.Decimal `json:"three_years"`
	FiveYears  *decimal.Decimal `json:"five_years"`
	TenYears   *decimal.Decimal `json:"ten_years"`
}

// NewGrowthMetrics quantizes every present window to two decimal places.
func NewGrowthMetrics(oneY, twoY, threeY, fiveY, tenY *decimal.Decimal) *GrowthMetrics {
	return &GrowthMetrics{
		OneYear:    round2(oneY),
		TwoYears:   round2(twoY),
		ThreeYears: round2(threeY),
		FiveYears:  round2(fiveY),
		TenYears:   round2(tenY),
	}
}

// Growth returns the value for a named lookback window ("1y", "2y", "3y",
// "5y", "10y"), or nil for an unknown window.
func (g *GrowthMetrics) Growth(period string) *decimal.Decimal {
	switch period {
	case "1y":
		return g.OneYear
	case "2y":
		return g.TwoYears
	case "3y":
		return g.ThreeYears
	case "5y":
		return g.FiveYears
	case "10y":
		return g.TenYears
	}
	return nil
}

// growthTolerance detects two windows computed from the same shortened
// price series.
var growthTolerance = decimal.NewFromFloat(0.01)

// SuppressUnreliable nulls windows that cannot be trusted. When the provider
// lacks history for a long window it returns the series it has, so the long
// window comes out nearly identical to a shorter one. A 2y/5y match
// invalidates everything from 2y up; otherwise a 5y/10y match invalidates
// the long pair.
func (g *GrowthMetrics) SuppressUnreliable() {
	if withinTolerance(g.TwoYears, g.FiveYears) {
		g.TwoYears, g.FiveYears, g.TenYears = nil, nil, nil
		return
	}
	if withinTolerance(g.FiveYears, g.TenYears) {
		g.FiveYears, g.TenYears = nil, nil
	}
}

func withinTolerance(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Sub(*b).Abs().LessThanOrEqual(growthTolerance)
}

// ErrInvalidRange reports a PriceRange whose bounds are inconsistent.
type ErrInvalidRange struct {
	Detail string
}

func (e *ErrInvalidRange) Error() string {
	return fmt.Sprintf("invalid price range: %s", e.Detail)
}

// PriceRange holds the 52-week and intraday price bounds, quantized to cents.
type PriceRange struct {
	Week52Low  decimal.Decimal `json:"week_52_low"`
	Week52High decimal.Decimal `json:"week_52_high"`
	DayLow     decimal.Decimal `json:"day_low"`
	DayHigh    decimal.Decimal `json:"day_high"`
}

// NewPriceRange validates and quantizes the bounds. The 52-week low must be
// strictly below the high; the day low may equal the day high.
func NewPriceRange(week52Low, week52High, dayLow, dayHigh decimal.Decimal) (*PriceRange, error) {
	if week52Low.GreaterThanOrEqual(week52High) {
		return nil, &ErrInvalidRange{Detail: "52-week low must be less than 52-week high"}
	}
	if dayLow.GreaterThan(dayHigh) {
		return nil, &ErrInvalidRange{Detail: "day low must not exceed day high"}
	}
	return &PriceRange{
		Week52Low:  week52Low.Round(2),
		Week52High: week52High.Round(2),
		DayLow:     dayLow.Round(2),
		DayHigh:    dayHigh.Round(2),
	}, nil
}

// PositionInRange maps a price onto the 52-week range as a fraction in
// [0, 1]. A degenerate range reports the midpoint.
func (r *PriceRange) PositionInRange(price decimal.Decimal) decimal.Decimal {
	width := r.Week52High.Sub(r.Week52Low)
	if width.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromFloat(0.5)
	}
	pos := price.Sub(r.Week52Low).Div(width)
	if pos.IsNegative() {
		return decimal.Zero
	}
	if one := decimal.NewFromInt(1); pos.GreaterThan(one) {
		return one
	}
	return pos
}

// StockInfo is the assembled report record handed to the renderer. Price
// fields are always present; optional fields are nil when the provider had
// no usable data.
type StockInfo struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`

	CurrentPrice  decimal.Decimal `json:"current_price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`

	OpenPrice decimal.Decimal `json:"open_price"`
	HighPrice decimal.Decimal `json:"high_price"`
	LowPrice  decimal.Decimal `json:"low_price"`
	Volume    int64           `json:"volume"`

	LastUpdated time.Time `json:"last_updated"`

	MarketCap *int64           `json:"market_cap,omitempty"`
	PERatio   *decimal.Decimal `json:"pe_ratio,omitempty"`
	EPS       *decimal.Decimal `json:"eps,omitempty"`
	BookValue *decimal.Decimal `json:"book_value,omitempty"`

	DividendYield  *decimal.Decimal `json:"dividend_yield,omitempty"`
	DividendRate   *decimal.Decimal `json:"dividend_rate,omitempty"`
	ExDividendDate *time.Time       `json:"ex_dividend_date,omitempty"`

	Sector    string `json:"sector,omitempty"`
	QuoteType string `json:"quote_type,omitempty"`
	Category  string `json:"category,omitempty"`

	GrowthMetrics    *GrowthMetrics    `json:"growth_metrics,omitempty"`
	PriceRange       *PriceRange       `json:"price_range,omitempty"`
	AnnualHistory    *FinancialHistory `json:"annual_history,omitempty"`
	QuarterlyHistory *FinancialHistory `json:"quarterly_history,omitempty"`
	WACC             *decimal.Decimal  `json:"wacc,omitempty"`

	DataQualityScore float64  `json:"data_quality_score"`
	QualityWarnings  []string `json:"quality_warnings,omitempty"`
}

// IsPriceIncreasing reports whether the last session closed up.
func (s *StockInfo) IsPriceIncreasing() bool { return s.Change.IsPositive() }

// IsPriceDecreasing reports whether the last session closed down.
func (s *StockInfo) IsPriceDecreasing() bool { return s.Change.IsNegative() }

// PaysDividend reports whether either dividend field is present and positive.
func (s *StockInfo) PaysDividend() bool {
	if s.DividendRate != nil && s.DividendRate.IsPositive() {
		return true
	}
	return s.DividendYield != nil && s.DividendYield.IsPositive()
}

// MarketCapCategory buckets the market cap into the usual size classes.
func (s *StockInfo) MarketCapCategory() string {
	if s.MarketCap == nil || *s.MarketCap <= 0 {
		return "unknown"
	}
	switch mc := *s.MarketCap; {
	case mc >= 200_000_000_000:
		return "mega_cap"
	case mc >= 10_000_000_000:
		return "large_cap"
	case mc >= 2_000_000_000:
		return "mid_cap"
	case mc >= 300_000_000:
		return "small_cap"
	default:
		return "micro_cap"
	}
}

// DisplayClassification picks the most useful one-line classification for
// the report header: fund category for ETFs, sector for equities, quote
// type otherwise.
func (s *StockInfo) DisplayClassification() string {
	switch {
	case s.QuoteType == "ETF" && s.Category != "":
		return s.Category
	case s.QuoteType == "ETF":
		return "ETF"
	case s.QuoteType == "MUTUALFUND":
		return "Mutual Fund"
	case s.QuoteType == "CRYPTOCURRENCY":
		return "Cryptocurrency"
	case s.Sector != "":
		return s.Sector
	}
	return "Unknown"
}

func round2(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	r := v.Round(2)
	return &r
}
