package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dp(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func fp(f float64) *float64 { return &f }

func decEq(a *decimal.Decimal, want string) bool {
	if a == nil {
		return false
	}
	return a.Equal(decimal.RequireFromString(want))
}

// --- FinancialPeriod Tests ---

func TestNewFinancialPeriodNormalizesToMillions(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"full units scaled down", 9_500_000, "9.5"},
		{"already millions untouched", 94_930, "94930"},
		{"large negative scaled down", -2_500_000_000, "-2500"},
		{"boundary magnitude untouched", 1_000_000, "1000000"},
		{"rounded to cents", 123_456_789, "123.46"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewFinancialPeriod(RawPeriod{
				EndDate:      time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
				TotalRevenue: fp(tt.in),
			})
			if !decEq(p.TotalRevenue, tt.want) {
				t.Errorf("TotalRevenue: got %v, want %s", p.TotalRevenue, tt.want)
			}
		})
	}
}

func TestNewFinancialPeriodNilStaysNil(t *testing.T) {
	p := NewFinancialPeriod(RawPeriod{EndDate: time.Now()})
	if p.TotalRevenue != nil {
		t.Errorf("TotalRevenue: got %v, want nil", p.TotalRevenue)
	}
	if p.FreeCashFlow != nil {
		t.Errorf("FreeCashFlow: got %v, want nil", p.FreeCashFlow)
	}
}

func TestNewFinancialPeriodSharesUnscaled(t *testing.T) {
	shares := int64(15_500_000_000)
	p := NewFinancialPeriod(RawPeriod{EndDate: time.Now(), SharesOutstanding: &shares})
	if p.SharesOutstanding == nil || *p.SharesOutstanding != shares {
		t.Errorf("SharesOutstanding: got %v, want %d", p.SharesOutstanding, shares)
	}
}

// --- FinancialHistory Tests ---

func historyOf(revenues []*float64) *FinancialHistory {
	periods := make([]FinancialPeriod, len(revenues))
	for i, r := range revenues {
		periods[i] = NewFinancialPeriod(RawPeriod{
			EndDate:      time.Date(2024-i, 12, 31, 0, 0, 0, 0, time.UTC),
			TotalRevenue: r,
		})
	}
	return NewFinancialHistory("TEST", "annual", periods)
}

func TestRevenueGrowthPerPeriod(t *testing.T) {
	h := historyOf([]*float64{fp(120), fp(100), fp(80)})
	g := h.RevenueGrowth()
	if len(g) != 2 {
		t.Fatalf("growth length: got %d, want 2", len(g))
	}
	if !decEq(g[0], "20") {
		t.Errorf("g[0]: got %v, want 20", g[0])
	}
	if !decEq(g[1], "25") {
		t.Errorf("g[1]: got %v, want 25", g[1])
	}
}

func TestGrowthSeriesLengthIsPeriodsMinusOne(t *testing.T) {
	for _, n := range []int{0, 1, 2, 4} {
		revenues := make([]*float64, n)
		for i := range revenues {
			revenues[i] = fp(float64(100 + i))
		}
		g := historyOf(revenues).RevenueGrowth()
		want := n - 1
		if want < 0 {
			want = 0
		}
		if len(g) != want {
			t.Errorf("%d periods: growth length got %d, want %d", n, len(g), want)
		}
	}
}

func TestGrowthUsesAbsoluteDenominator(t *testing.T) {
	// Loss shrinking from -100 to -50 is an improvement: +50%.
	h := historyOf([]*float64{fp(-50), fp(-100)})
	g := h.RevenueGrowth()
	if !decEq(g[0], "50") {
		t.Errorf("growth vs negative base: got %v, want 50", g[0])
	}
}

func TestGrowthNilOnZeroOrMissingPrevious(t *testing.T) {
	h := historyOf([]*float64{fp(100), fp(0), nil, fp(50)})
	g := h.RevenueGrowth()
	if g[0] != nil {
		t.Errorf("zero previous: got %v, want nil", g[0])
	}
	if g[1] != nil {
		t.Errorf("missing previous: got %v, want nil", g[1])
	}
	if g[2] != nil {
		t.Errorf("missing current: got %v, want nil", g[2])
	}
}

func TestGrowthRoundedToOneDecimal(t *testing.T) {
	h := historyOf([]*float64{fp(110), fp(90)})
	g := h.RevenueGrowth()
	// (110-90)/90*100 = 22.222... -> 22.2
	if !decEq(g[0], "22.2") {
		t.Errorf("growth rounding: got %v, want 22.2", g[0])
	}
}

func TestHistoryCappedAtMaxPeriods(t *testing.T) {
	h := historyOf([]*float64{fp(1), fp(2), fp(3), fp(4), fp(5), fp(6)})
	if len(h.Periods) != MaxPeriods {
		t.Errorf("periods: got %d, want %d", len(h.Periods), MaxPeriods)
	}
}

func TestSharesGrowth(t *testing.T) {
	a, b := int64(90), int64(100)
	periods := []FinancialPeriod{
		{EndDate: time.Now(), SharesOutstanding: &a},
		{EndDate: time.Now().AddDate(-1, 0, 0), SharesOutstanding: &b},
	}
	h := NewFinancialHistory("TEST", "annual", periods)
	g := h.SharesGrowth()
	if !decEq(g[0], "-10") {
		t.Errorf("shares growth: got %v, want -10", g[0])
	}
}

// --- GrowthMetrics Tests ---

func TestNewGrowthMetricsRoundsToTwoDecimals(t *testing.T) {
	g := NewGrowthMetrics(dp(12.345), nil, nil, nil, nil)
	if !decEq(g.OneYear, "12.35") {
		t.Errorf("OneYear: got %v, want 12.35", g.OneYear)
	}
	if g.TwoYears != nil {
		t.Errorf("TwoYears: got %v, want nil", g.TwoYears)
	}
}

func TestGrowthLookup(t *testing.T) {
	g := NewGrowthMetrics(dp(10), dp(20), dp(30), dp(50), dp(100))
	if !decEq(g.Growth("3y"), "30") {
		t.Errorf("Growth(3y): got %v, want 30", g.Growth("3y"))
	}
	if g.Growth("7y") != nil {
		t.Errorf("Growth(7y): got %v, want nil", g.Growth("7y"))
	}
}

func TestSuppressUnreliableFiveTenPair(t *testing.T) {
	g := &GrowthMetrics{
		OneYear:   dp(12.00),
		TwoYears:  dp(30.00),
		FiveYears: dp(91.10),
		TenYears:  dp(91.105),
	}
	g.SuppressUnreliable()
	if g.FiveYears != nil || g.TenYears != nil {
		t.Errorf("5y/10y should both be suppressed: got %v / %v", g.FiveYears, g.TenYears)
	}
	if g.OneYear == nil || g.TwoYears == nil {
		t.Error("1y/2y must survive 5y/10y suppression")
	}
}

func TestSuppressUnreliableTwoFiveCascade(t *testing.T) {
	g := &GrowthMetrics{
		OneYear:   dp(5.00),
		TwoYears:  dp(44.30),
		FiveYears: dp(44.30),
		TenYears:  dp(130.00),
	}
	g.SuppressUnreliable()
	if g.TwoYears != nil || g.FiveYears != nil || g.TenYears != nil {
		t.Errorf("2y/5y/10y should all be suppressed: got %v / %v / %v",
			g.TwoYears, g.FiveYears, g.TenYears)
	}
	if g.OneYear == nil {
		t.Error("1y must survive suppression")
	}
}

func TestSuppressUnreliableKeepsDistinctWindows(t *testing.T) {
	g := &GrowthMetrics{
		TwoYears:  dp(20.00),
		FiveYears: dp(60.00),
		TenYears:  dp(140.00),
	}
	g.SuppressUnreliable()
	if g.TwoYears == nil || g.FiveYears == nil || g.TenYears == nil {
		t.Error("distinct windows must not be suppressed")
	}
}

// --- PriceRange Tests ---

func TestNewPriceRangeRejectsDegenerate52Week(t *testing.T) {
	fifty := decimal.NewFromInt(50)
	_, err := NewPriceRange(fifty, fifty, fifty, fifty)
	if err == nil {
		t.Fatal("equal 52-week bounds should be rejected")
	}
	var ir *ErrInvalidRange
	if !errors.As(err, &ir) {
		t.Errorf("error type: got %T, want *ErrInvalidRange", err)
	}
}

func TestNewPriceRangeRejectsInvertedDay(t *testing.T) {
	_, err := NewPriceRange(decimal.NewFromInt(10), decimal.NewFromInt(100),
		decimal.NewFromInt(60), decimal.NewFromInt(55))
	if err == nil {
		t.Fatal("day low above day high should be rejected")
	}
}

func TestNewPriceRangeAllowsEqualDayBounds(t *testing.T) {
	r, err := NewPriceRange(decimal.NewFromInt(10), decimal.NewFromInt(100),
		decimal.NewFromInt(55), decimal.NewFromInt(55))
	if err != nil {
		t.Fatalf("equal day bounds: unexpected error %v", err)
	}
	if !r.DayLow.Equal(r.DayHigh) {
		t.Error("day bounds should survive construction")
	}
}

func TestPositionInRange(t *testing.T) {
	r, err := NewPriceRange(decimal.NewFromInt(100), decimal.NewFromInt(200),
		decimal.NewFromInt(140), decimal.NewFromInt(150))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		price float64
		want  string
	}{
		{150, "0.5"},
		{100, "0"},
		{200, "1"},
		{90, "0"},  // clamped below
		{250, "1"}, // clamped above
		{125, "0.25"},
	}
	for _, tt := range tests {
		got := r.PositionInRange(decimal.NewFromFloat(tt.price))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("PositionInRange(%.0f): got %v, want %s", tt.price, got, tt.want)
		}
	}
}

// --- StockInfo Tests ---

func TestMarketCapCategory(t *testing.T) {
	tests := []struct {
		mc   int64
		want string
	}{
		{3_000_000_000_000, "mega_cap"},
		{50_000_000_000, "large_cap"},
		{5_000_000_000, "mid_cap"},
		{500_000_000, "small_cap"},
		{100_000_000, "micro_cap"},
	}
	for _, tt := range tests {
		s := StockInfo{MarketCap: &tt.mc}
		if got := s.MarketCapCategory(); got != tt.want {
			t.Errorf("MarketCapCategory(%d): got %q, want %q", tt.mc, got, tt.want)
		}
	}
	var none StockInfo
	if got := none.MarketCapCategory(); got != "unknown" {
		t.Errorf("missing market cap: got %q, want unknown", got)
	}
}

func TestDisplayClassification(t *testing.T) {
	tests := []struct {
		name string
		info StockInfo
		want string
	}{
		{"etf with category", StockInfo{QuoteType: "ETF", Category: "Large Blend"}, "Large Blend"},
		{"etf without category", StockInfo{QuoteType: "ETF"}, "ETF"},
		{"equity with sector", StockInfo{QuoteType: "EQUITY", Sector: "Technology"}, "Technology"},
		{"mutual fund", StockInfo{QuoteType: "MUTUALFUND"}, "Mutual Fund"},
		{"nothing known", StockInfo{}, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.DisplayClassification(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPriceDirectionAndDividends(t *testing.T) {
	up := StockInfo{Change: decimal.NewFromFloat(1.25)}
	if !up.IsPriceIncreasing() || up.IsPriceDecreasing() {
		t.Error("positive change should read as increasing")
	}
	down := StockInfo{Change: decimal.NewFromFloat(-0.50)}
	if !down.IsPriceDecreasing() {
		t.Error("negative change should read as decreasing")
	}
	div := StockInfo{DividendRate: dp(0.96)}
	if !div.PaysDividend() {
		t.Error("positive dividend rate should read as paying")
	}
	var none StockInfo
	if none.PaysDividend() {
		t.Error("no dividend fields should read as not paying")
	}
}
