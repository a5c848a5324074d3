package datasource

import "encoding/json"

// Wire types for the Yahoo Finance v8/v10 JSON payloads. Most numeric fields
// arrive as {"raw": n, "fmt": "..."} objects; a few are bare numbers.

// yfNum is a {raw, fmt} numeric field. Absent fields stay nil.
type yfNum struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

// yfFinVal is a statement cell. It tolerates bare numbers (maxAge), empty
// objects, and non-numeric values, keeping Raw nil for all of them.
type yfFinVal struct {
	Raw *float64
	Fmt string
}

func (v *yfFinVal) UnmarshalJSON(b []byte) error {
	var obj struct {
		Raw *float64 `json:"raw"`
		Fmt string   `json:"fmt"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		v.Raw = obj.Raw
		v.Fmt = obj.Fmt
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		v.Raw = &n
		return nil
	}
	// Strings, nulls, arrays: not a value we carry.
	return nil
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- v8 chart ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

type yfIndicators struct {
	Quote []yfOHLCV `json:"quote"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// --- v10 quoteSummary ---

type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []yfQuoteSummaryResult `json:"result"`
		Error  *yfError               `json:"error"`
	} `json:"quoteSummary"`
}

type yfQuoteSummaryResult struct {
	Price                *yfPrice         `json:"price"`
	SummaryDetail        *yfSummaryDetail `json:"summaryDetail"`
	DefaultKeyStatistics *yfKeyStatistics `json:"defaultKeyStatistics"`
	AssetProfile         *yfAssetProfile  `json:"assetProfile"`

	IncomeStatementHistory            *yfIncomeHistory   `json:"incomeStatementHistory"`
	IncomeStatementHistoryQuarterly   *yfIncomeHistory   `json:"incomeStatementHistoryQuarterly"`
	BalanceSheetHistory               *yfBalanceHistory  `json:"balanceSheetHistory"`
	BalanceSheetHistoryQuarterly      *yfBalanceHistory  `json:"balanceSheetHistoryQuarterly"`
	CashflowStatementHistory          *yfCashflowHistory `json:"cashflowStatementHistory"`
	CashflowStatementHistoryQuarterly *yfCashflowHistory `json:"cashflowStatementHistoryQuarterly"`
}

type yfPrice struct {
	Symbol                     string `json:"symbol"`
	ShortName                  string `json:"shortName"`
	LongName                   string `json:"longName"`
	QuoteType                  string `json:"quoteType"`
	RegularMarketPrice         *yfNum `json:"regularMarketPrice"`
	RegularMarketChange        *yfNum `json:"regularMarketChange"`
	RegularMarketChangePercent *yfNum `json:"regularMarketChangePercent"`
	RegularMarketOpen          *yfNum `json:"regularMarketOpen"`
	RegularMarketDayHigh       *yfNum `json:"regularMarketDayHigh"`
	RegularMarketDayLow        *yfNum `json:"regularMarketDayLow"`
	RegularMarketPreviousClose *yfNum `json:"regularMarketPreviousClose"`
	RegularMarketVolume        *yfNum `json:"regularMarketVolume"`
	MarketCap                  *yfNum `json:"marketCap"`
}

type yfSummaryDetail struct {
	TrailingPE       *yfNum `json:"trailingPE"`
	DividendYield    *yfNum `json:"dividendYield"`
	DividendRate     *yfNum `json:"dividendRate"`
	ExDividendDate   *yfNum `json:"exDividendDate"` // unix seconds
	Beta             *yfNum `json:"beta"`
	FiftyTwoWeekLow  *yfNum `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekHigh *yfNum `json:"fiftyTwoWeekHigh"`
	DayLow           *yfNum `json:"dayLow"`
	DayHigh          *yfNum `json:"dayHigh"`
}

type yfKeyStatistics struct {
	TrailingEps *yfNum `json:"trailingEps"`
	BookValue   *yfNum `json:"bookValue"`
	Beta        *yfNum `json:"beta"`
	Category    string `json:"category"`
}

type yfAssetProfile struct {
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// The nested array names differ per statement kind, hence three history
// wrappers instead of one.

type yfIncomeHistory struct {
	Statements []map[string]yfFinVal `json:"incomeStatementHistory"`
}

type yfBalanceHistory struct {
	Statements []map[string]yfFinVal `json:"balanceSheetStatements"`
}

type yfCashflowHistory struct {
	Statements []map[string]yfFinVal `json:"cashflowStatements"`
}
