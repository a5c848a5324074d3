// Package render draws the terminal report for an analyzed stock.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/stocklyzer/stocklyzer/pkg/models"
)

const missing = "—"

// Renderer writes the stock report to an output stream.
type Renderer struct {
	w     io.Writer
	color bool
}

// New creates a renderer. With color disabled all annotations are plain.
func New(w io.Writer, color bool) *Renderer {
	return &Renderer{w: w, color: color}
}

// Render writes the full report: overview, price, fundamentals, growth,
// statement tables, and data quality warnings.
func (r *Renderer) Render(info *models.StockInfo) {
	r.renderHeader(info)
	r.renderPrice(info)
	r.renderFundamentals(info)
	r.renderGrowth(info.GrowthMetrics)
	r.renderIncome(info.AnnualHistory, "Annual Income")
	r.renderIncome(info.QuarterlyHistory, "Quarterly Income")
	r.renderBalanceSheet(info.AnnualHistory)
	r.renderCashFlow(info.AnnualHistory, "Annual Cash Flow")
	r.renderCashFlow(info.QuarterlyHistory, "Quarterly Cash Flow")
	r.renderWarnings(info.QualityWarnings)
}

func (r *Renderer) renderHeader(info *models.StockInfo) {
	name := info.CompanyName
	if name == "" {
		name = info.Symbol
	}
	title := fmt.Sprintf("%s (%s)", name, info.Symbol)
	if r.color {
		title = text.Bold.Sprint(title)
	}
	fmt.Fprintln(r.w, title)
	fmt.Fprintf(r.w, "%s · %s\n\n", info.DisplayClassification(), capLabel(info.MarketCapCategory()))
}

func (r *Renderer) renderPrice(info *models.StockInfo) {
	arrow := ""
	switch {
	case info.IsPriceIncreasing():
		arrow = "▲"
	case info.IsPriceDecreasing():
		arrow = "▼"
	}
	line := fmt.Sprintf("%s %s %s (%s%%)",
		info.CurrentPrice.StringFixed(2), arrow,
		info.Change.StringFixed(2), info.ChangePercent.StringFixed(2))
	fmt.Fprintln(r.w, r.colorBySign(line, info.Change))

	fmt.Fprintf(r.w, "Open %s  High %s  Low %s  Vol %s\n",
		info.OpenPrice.StringFixed(2), info.HighPrice.StringFixed(2),
		info.LowPrice.StringFixed(2), formatCount(info.Volume))

	if pr := info.PriceRange; pr != nil {
		pos := pr.PositionInRange(info.CurrentPrice)
		fmt.Fprintf(r.w, "52wk %s %s %s\n",
			pr.Week52Low.StringFixed(2), positionBar(pos, 30), pr.Week52High.StringFixed(2))
	}
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderFundamentals(info *models.StockInfo) {
	tw := r.newTable("Fundamentals")
	tw.AppendRow(table.Row{"Market Cap", formatMarketCap(info.MarketCap)})
	tw.AppendRow(table.Row{"P/E (ttm)", fmtDec(info.PERatio)})
	tw.AppendRow(table.Row{"EPS (ttm)", fmtDec(info.EPS)})
	tw.AppendRow(table.Row{"Book Value", fmtDec(info.BookValue)})
	if info.PaysDividend() {
		yield := fmtDec(info.DividendYield)
		if info.DividendYield != nil {
			yield += "%"
		}
		tw.AppendRow(table.Row{"Dividend Yield", yield})
		tw.AppendRow(table.Row{"Dividend Rate", fmtDec(info.DividendRate)})
		if info.ExDividendDate != nil {
			tw.AppendRow(table.Row{"Ex-Dividend Date", info.ExDividendDate.Format("2006-01-02")})
		}
	}
	if info.WACC != nil {
		tw.AppendRow(table.Row{"WACC", info.WACC.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"})
	}
	tw.AppendRow(table.Row{"Data Quality", fmt.Sprintf("%.0f%%", info.DataQualityScore*100)})
	tw.Render()
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderGrowth(g *models.GrowthMetrics) {
	if g == nil {
		return
	}
	tw := r.newTable("Price Growth")
	tw.AppendHeader(table.Row{"1Y", "2Y", "3Y", "5Y", "10Y"})
	row := make(table.Row, 0, 5)
	for _, v := range []*decimal.Decimal{g.OneYear, g.TwoYears, g.ThreeYears, g.FiveYears, g.TenYears} {
		row = append(row, r.percentCell(v, false))
	}
	tw.AppendRow(row)
	tw.Render()
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderIncome(h *models.FinancialHistory, title string) {
	if h == nil || len(h.Periods) == 0 {
		return
	}
	tw := r.newTable(title + " (millions)")
	tw.AppendHeader(periodHeader(h))
	tw.AppendRow(r.metricRow("Revenue", h.Periods, h.RevenueGrowth(),
		func(p *models.FinancialPeriod) *decimal.Decimal { return p.TotalRevenue }, false))
	tw.AppendRow(r.metricRow("Net Income", h.Periods, h.NetIncomeGrowth(),
		func(p *models.FinancialPeriod) *decimal.Decimal { return p.NetIncome }, false))
	tw.Render()
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderBalanceSheet(h *models.FinancialHistory) {
	if h == nil || len(h.Periods) == 0 {
		return
	}
	tw := r.newTable("Balance Sheet (millions)")
	tw.AppendHeader(periodHeader(h))
	tw.AppendRow(r.metricRow("Total Assets", h.Periods, h.AssetsGrowth(),
		func(p *models.FinancialPeriod) *decimal.Decimal { return p.TotalAssets }, false))
	// Growing liabilities and share counts hurt holders, so their coloring
	// is inverted.
	tw.AppendRow(r.metricRow("Total Liabilities", h.Periods, h.LiabilitiesGrowth(),
		func(p *models.FinancialPeriod) *decimal.Decimal { return p.TotalLiabilities }, true))
	tw.AppendRow(r.metricRow("Total Equity", h.Periods, h.EquityGrowth(),
		func(p *models.FinancialPeriod) *decimal.Decimal { return p.TotalEquity }, false))
	tw.AppendRow(r.metricRow("Shares Outstanding", h.Periods, h.SharesGrowth(),
		func(p *models.FinancialPeriod) *decimal.Decimal {
			if p.SharesOutstanding == nil {
				return nil
			}
			d := decimal.NewFromInt(*p.SharesOutstanding)
			return &d
		}, true))
	tw.Render()
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderCashFlow(h *models.FinancialHistory, title string) {
	if h == nil || len(h.Periods) == 0 {
		return
	}
	tw := r.newTable(title + " (millions)")
	tw.AppendHeader(periodHeader(h))
	tw.AppendRow(r.metricRow("Operating CF", h.Periods, h.OperatingCashFlowGrowth(),
		func(p *models.FinancialPeriod) *decimal.Decimal { return p.OperatingCashFlow }, false))
	tw.AppendRow(r.metricRow("Investing CF", h.Periods, nil,
		func(p *models.FinancialPeriod) *decimal.Decimal { return p.InvestingCashFlow }, false))
	tw.AppendRow(r.metricRow("Financing CF", h.Periods, nil,
		func(p *models.FinancialPeriod) *decimal.Decimal { return p.FinancingCashFlow }, false))
	tw.AppendRow(r.metricRow("Change in Cash", h.Periods, nil,
		func(p *models.FinancialPeriod) *decimal.Decimal { return p.ChangesInCash }, false))
	tw.AppendRow(r.metricRow("Free Cash Flow", h.Periods, h.FreeCashFlowGrowth(),
		func(p *models.FinancialPeriod) *decimal.Decimal { return p.FreeCashFlow }, false))
	tw.Render()
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	header := "Data quality warnings:"
	if r.color {
		header = text.Colors{text.FgYellow}.Sprint(header)
	}
	fmt.Fprintln(r.w, header)
	for _, w := range warnings {
		fmt.Fprintf(r.w, "  ! %s\n", w)
	}
}

func (r *Renderer) newTable(title string) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(r.w)
	tw.SetTitle(title)
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.SeparateRows = false
	return tw
}

// metricRow formats one statement metric across periods, annotating each
// value with its period-over-period growth when available.
func (r *Renderer) metricRow(label string, periods []models.FinancialPeriod, growths []*decimal.Decimal, get func(*models.FinancialPeriod) *decimal.Decimal, invert bool) table.Row {
	row := table.Row{label}
	for i := range periods {
		v := get(&periods[i])
		cell := fmtDec(v)
		if growths != nil && i < len(growths) && growths[i] != nil {
			cell += " " + r.percentCell(growths[i], invert)
		}
		row = append(row, cell)
	}
	return row
}

// percentCell renders a signed percentage, colored by whether the move is
// good for the holder. invert flips the palette for metrics where growth
// is bad.
func (r *Renderer) percentCell(v *decimal.Decimal, invert bool) string {
	if v == nil {
		return missing
	}
	s := v.StringFixed(1) + "%"
	if !v.IsNegative() {
		s = "+" + s
	}
	if invert {
		return r.colorBySign(s, v.Neg())
	}
	return r.colorBySign(s, *v)
}

func (r *Renderer) colorBySign(s string, v decimal.Decimal) string {
	if !r.color {
		return s
	}
	switch {
	case v.IsPositive():
		return text.Colors{text.FgGreen}.Sprint(s)
	case v.IsNegative():
		return text.Colors{text.FgRed}.Sprint(s)
	}
	return s
}

// positionBar draws the current price's position inside the 52-week range.
func positionBar(pos decimal.Decimal, width int) string {
	f, _ := pos.Float64()
	marker := int(f * float64(width-1))
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < width; i++ {
		switch {
		case i == marker:
			b.WriteByte('|')
		case i < marker:
			b.WriteByte('=')
		default:
			b.WriteByte('-')
		}
	}
	b.WriteByte(']')
	return b.String()
}

func periodHeader(h *models.FinancialHistory) table.Row {
	row := table.Row{""}
	for _, p := range h.Periods {
		row = append(row, p.EndDate.Format("2006-01-02"))
	}
	return row
}

func fmtDec(v *decimal.Decimal) string {
	if v == nil {
		return missing
	}
	return v.StringFixed(2)
}

func formatMarketCap(mc *int64) string {
	if mc == nil {
		return missing
	}
	return formatCount(*mc)
}

func formatCount(n int64) string {
	f := float64(n)
	switch {
	case f >= 1e12:
		return fmt.Sprintf("%.2fT", f/1e12)
	case f >= 1e9:
		return fmt.Sprintf("%.2fB", f/1e9)
	case f >= 1e6:
		return fmt.Sprintf("%.2fM", f/1e6)
	case f >= 1e3:
		return fmt.Sprintf("%.2fK", f/1e3)
	}
	return fmt.Sprintf("%d", n)
}

func capLabel(category string) string {
	switch category {
	case "mega_cap":
		return "Mega Cap"
	case "large_cap":
		return "Large Cap"
	case "mid_cap":
		return "Mid Cap"
	case "small_cap":
		return "Small Cap"
	case "micro_cap":
		return "Micro Cap"
	}
	return "Unclassified"
}
