package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stocklyzer/stocklyzer/internal/config"
	"github.com/stocklyzer/stocklyzer/pkg/models"
)

type fakeSource struct {
	snap          *models.Snapshot
	snapErr       error
	bars          []models.Bar
	barsErr       error
	statements    *models.StatementHistory
	statementsErr error
	treasury      float64
	treasuryErr   error
}

func (f *fakeSource) Name() string { return "fake" }
func (f *fakeSource) GetSnapshot(context.Context, string) (*models.Snapshot, error) {
	return f.snap, f.snapErr
}
func (f *fakeSource) GetDailyBars(context.Context, string, string) ([]models.Bar, error) {
	return f.bars, f.barsErr
}
func (f *fakeSource) GetStatements(context.Context, string, bool) (*models.StatementHistory, error) {
	return f.statements, f.statementsErr
}
func (f *fakeSource) GetTreasuryYield(context.Context) (float64, error) {
	return f.treasury, f.treasuryErr
}

func testService(src *fakeSource) *Service {
	cfg := &config.Config{
		Analysis: config.AnalysisConfig{
			MaxPeriods:           4,
			AnnualRevenueCapX:    100,
			QuarterlyRevenueCapX: 50,
			AssetsCapX:           500,
			MaxQualityWarnings:   3,
		},
		Valuation: config.ValuationConfig{
			RequiredReturn: 0.10,
			DefaultBeta:    1.0,
			TreasurySymbol: "^TNX",
		},
	}
	return New(cfg, src, nil)
}

func baseSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Symbol:        "AAPL",
		Name:          "Apple Inc.",
		Sector:        "Technology",
		QuoteType:     "EQUITY",
		MarketCap:     2_950_000_000_000,
		TrailingPE:    31.2,
		EPS:           6.13,
		BookValue:     4.38,
		Beta:          1.25,
		DividendYield: 0.0051,
		DividendRate:  0.96,
		Week52Low:     164.08,
		Week52High:    199.62,
		DayLow:        187.9,
		DayHigh:       191.0,
		CurrentPrice:  190.5,
		PreviousClose: 188.0,
		Open:          188.5,
		Volume:        52_000_000,
	}
}

func twoYearBars() []models.Bar {
	now := time.Now().UTC()
	days := 2 * 365
	bars := make([]models.Bar, days)
	for i := 0; i < days; i++ {
		bars[i] = models.Bar{
			Date:  now.AddDate(0, 0, -(days - 1 - i)),
			Close: 100 + float64(i)*0.1,
		}
	}
	return bars
}

func TestAnalyzeStockAssemblesReport(t *testing.T) {
	src := &fakeSource{
		snap:     baseSnapshot(),
		bars:     twoYearBars(),
		treasury: 0.04,
		statements: &models.StatementHistory{
			Income: []models.StatementPeriod{
				{EndDate: time.Date(2024, 9, 28, 0, 0, 0, 0, time.UTC), Fields: map[string]float64{
					"totalRevenue":    391_035_000_000,
					"netIncome":       93_736_000_000,
					"interestExpense": -600_000_000,
				}},
			},
			BalanceSheet: []models.StatementPeriod{
				{EndDate: time.Date(2024, 9, 28, 0, 0, 0, 0, time.UTC), Fields: map[string]float64{
					"totalAssets":       364_980_000_000,
					"longTermDebt":      20_000_000_000,
					"shortLongTermDebt": 5_000_000_000,
				}},
			},
		},
	}

	info, err := testService(src).AnalyzeStock(context.Background(), " aapl ")
	if err != nil {
		t.Fatalf("AnalyzeStock error: %v", err)
	}

	if info.Symbol != "AAPL" {
		t.Errorf("Symbol: got %q, want AAPL", info.Symbol)
	}
	if info.CompanyName != "Apple Inc." {
		t.Errorf("CompanyName: got %q", info.CompanyName)
	}
	if info.Change.String() != "2.5" {
		t.Errorf("Change: got %v, want 2.5", info.Change)
	}
	if info.ChangePercent.String() != "1.33" {
		t.Errorf("ChangePercent: got %v, want 1.33", info.ChangePercent)
	}
	if info.PERatio == nil || info.PERatio.String() != "31.2" {
		t.Errorf("PERatio: got %v, want 31.2", info.PERatio)
	}
	// 0.0051 is a ratio, so it becomes 0.51%.
	if info.DividendYield == nil || info.DividendYield.String() != "0.51" {
		t.Errorf("DividendYield: got %v, want 0.51", info.DividendYield)
	}
	if info.PriceRange == nil {
		t.Fatal("PriceRange should be present")
	}
	if info.GrowthMetrics == nil || info.GrowthMetrics.OneYear == nil {
		t.Error("1y growth should be present with 2y of bars")
	}
	if len(info.AnnualHistory.Periods) != 1 {
		t.Errorf("annual periods: got %d, want 1", len(info.AnnualHistory.Periods))
	}
	if info.WACC == nil {
		t.Error("WACC should be present with treasury, market cap, and a debt pair")
	}
	// All six quality fields are populated.
	if info.DataQualityScore != 1.0 {
		t.Errorf("DataQualityScore: got %f, want 1.0", info.DataQualityScore)
	}
}

func TestAnalyzeStockInvalidSymbol(t *testing.T) {
	if _, err := testService(&fakeSource{}).AnalyzeStock(context.Background(), "AAPL1"); err == nil {
		t.Error("invalid symbol should fail before any fetch")
	}
}

func TestAnalyzeStockSnapshotFailureIsFatal(t *testing.T) {
	wantErr := errors.New("upstream down")
	src := &fakeSource{snapErr: wantErr, statementsErr: fmt.Errorf("also down")}
	if _, err := testService(src).AnalyzeStock(context.Background(), "AAPL"); err == nil {
		t.Error("snapshot failure should fail the analysis")
	}
}

func TestAnalyzeStockDegradesGracefully(t *testing.T) {
	src := &fakeSource{
		snap:          baseSnapshot(),
		barsErr:       errors.New("chart down"),
		statementsErr: errors.New("statements down"),
		treasuryErr:   errors.New("treasury down"),
	}
	info, err := testService(src).AnalyzeStock(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("optional failures should not fail analysis: %v", err)
	}
	if info.GrowthMetrics != nil {
		t.Error("growth should be absent when bars are unavailable")
	}
	if len(info.AnnualHistory.Periods) != 0 {
		t.Error("annual history should be empty when statements are unavailable")
	}
	if info.WACC != nil {
		t.Error("WACC should be absent without statements")
	}
	// Market cap, EPS, book value, sector present; P/E present; no 1y growth.
	want := 5.0 / 6
	if info.DataQualityScore < want-0.01 || info.DataQualityScore > want+0.01 {
		t.Errorf("DataQualityScore: got %f, want ~%f", info.DataQualityScore, want)
	}
}

func TestAnalyzeStockPEBusinessRule(t *testing.T) {
	tests := []struct {
		name   string
		eps    float64
		pe     float64
		wantPE bool
	}{
		{"healthy", 6.13, 31.2, true},
		{"negative eps", -2.5, 31.2, false},
		{"zero eps", 0, 31.2, false},
		{"pe too large", 6.13, 1500, false},
		{"pe at cap", 6.13, 1000, true},
		{"pe missing", 6.13, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := baseSnapshot()
			snap.EPS = tt.eps
			snap.TrailingPE = tt.pe
			info, err := testService(&fakeSource{snap: snap}).AnalyzeStock(context.Background(), "AAPL")
			if err != nil {
				t.Fatal(err)
			}
			if got := info.PERatio != nil; got != tt.wantPE {
				t.Errorf("PERatio present: got %v, want %v (value %v)", got, tt.wantPE, info.PERatio)
			}
		})
	}
}

func TestAnalyzeStockDividendYieldHeuristic(t *testing.T) {
	tests := []struct {
		name  string
		yield float64
		want  string
	}{
		{"ratio form", 0.0051, "0.51"},
		{"percent form", 0.51, "0.51"},
		{"boundary treated as ratio", 0.20, "20"},
		{"just above boundary kept", 0.21, "0.21"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := baseSnapshot()
			snap.DividendYield = tt.yield
			info, err := testService(&fakeSource{snap: snap}).AnalyzeStock(context.Background(), "AAPL")
			if err != nil {
				t.Fatal(err)
			}
			if info.DividendYield == nil || info.DividendYield.String() != tt.want {
				t.Errorf("DividendYield: got %v, want %s", info.DividendYield, tt.want)
			}
		})
	}
}

func TestAnalyzeStockInvalidPriceRangeDropped(t *testing.T) {
	snap := baseSnapshot()
	snap.Week52Low, snap.Week52High = 50, 50
	info, err := testService(&fakeSource{snap: snap}).AnalyzeStock(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("degenerate range should not fail analysis: %v", err)
	}
	if info.PriceRange != nil {
		t.Error("degenerate 52-week range should yield a nil PriceRange")
	}
}
