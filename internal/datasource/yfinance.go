package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stocklyzer/stocklyzer/internal/config"
	"github.com/stocklyzer/stocklyzer/internal/infra"
	"github.com/stocklyzer/stocklyzer/pkg/models"
)

const (
	snapshotModules = "price,summaryDetail,defaultKeyStatistics,assetProfile"
	annualModules   = "incomeStatementHistory,balanceSheetHistory,cashflowStatementHistory"
	quarterModules  = "incomeStatementHistoryQuarterly,balanceSheetHistoryQuarterly,cashflowStatementHistoryQuarterly"
)

// Yahoo implements MarketData against the public Yahoo Finance endpoints.
type Yahoo struct {
	baseURL      string
	client       *http.Client
	cache        *infra.Cache
	limiter      *infra.RateLimiter
	statementTTL time.Duration
	treasurySym  string
	logger       *zap.Logger
}

// NewYahoo creates a Yahoo Finance data source from provider configuration.
func NewYahoo(cfg config.ProviderConfig, treasurySymbol string, logger *zap.Logger) *Yahoo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Yahoo{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		client:       &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		cache:        infra.NewCache(time.Duration(cfg.QuoteCacheSec) * time.Second),
		limiter:      infra.NewRateLimiter(cfg.RateLimit, time.Second),
		statementTTL: time.Duration(cfg.StatementCacheSec) * time.Second,
		treasurySym:  treasurySymbol,
		logger:       logger,
	}
}

// Name returns the data source name.
func (y *Yahoo) Name() string { return "Yahoo Finance" }

// fetchJSON rate-limits, issues the GET, and decodes the body into out.
func (y *Yahoo) fetchJSON(ctx context.Context, u string, out any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return err
	}
	body, err := infra.DoGet(ctx, y.client, u)
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// GetSnapshot returns the current fundamentals snapshot for a symbol.
func (y *Yahoo) GetSnapshot(ctx context.Context, symbol string) (*models.Snapshot, error) {
	cacheKey := "snapshot:" + symbol
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(*models.Snapshot), nil
	}

	result, err := y.quoteSummary(ctx, symbol, snapshotModules)
	if err != nil {
		return nil, err
	}
	if result.Price == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	snap := &models.Snapshot{Symbol: symbol}
	p := result.Price
	snap.Name = coalesce(p.LongName, p.ShortName)
	snap.QuoteType = p.QuoteType
	snap.CurrentPrice = raw(p.RegularMarketPrice)
	snap.PreviousClose = raw(p.RegularMarketPreviousClose)
	snap.Open = raw(p.RegularMarketOpen)
	snap.Volume = int64(raw(p.RegularMarketVolume))
	snap.MarketCap = int64(raw(p.MarketCap))
	snap.DayLow = raw(p.RegularMarketDayLow)
	snap.DayHigh = raw(p.RegularMarketDayHigh)

	if sd := result.SummaryDetail; sd != nil {
		snap.TrailingPE = raw(sd.TrailingPE)
		snap.DividendYield = raw(sd.DividendYield)
		snap.DividendRate = raw(sd.DividendRate)
		snap.Beta = raw(sd.Beta)
		snap.Week52Low = raw(sd.FiftyTwoWeekLow)
		snap.Week52High = raw(sd.FiftyTwoWeekHigh)
		if snap.DayLow == 0 {
			snap.DayLow = raw(sd.DayLow)
		}
		if snap.DayHigh == 0 {
			snap.DayHigh = raw(sd.DayHigh)
		}
		if sd.ExDividendDate != nil && sd.ExDividendDate.Raw > 0 {
			snap.ExDividendDate = time.Unix(int64(sd.ExDividendDate.Raw), 0).UTC()
		}
	}
	if ks := result.DefaultKeyStatistics; ks != nil {
		snap.EPS = raw(ks.TrailingEps)
		snap.BookValue = raw(ks.BookValue)
		snap.Category = ks.Category
		if snap.Beta == 0 {
			snap.Beta = raw(ks.Beta)
		}
	}
	if ap := result.AssetProfile; ap != nil {
		snap.Sector = ap.Sector
	}

	y.cache.Set(cacheKey, snap)
	return snap, nil
}

// GetDailyBars returns daily bars for a chart range such as "1y" or "10y",
// oldest first. Bars with a missing close are dropped.
func (y *Yahoo) GetDailyBars(ctx context.Context, symbol, rng string) ([]models.Bar, error) {
	cacheKey := fmt.Sprintf("bars:%s:%s", symbol, rng)
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.([]models.Bar), nil
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		y.baseURL, url.PathEscape(symbol), url.QueryEscape(rng))

	var resp yfChartResponse
	if err := y.fetchJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	bars := parseBars(resp.Chart.Result[0])
	y.logger.Debug("fetched daily bars",
		zap.String("symbol", symbol),
		zap.String("range", rng),
		zap.Int("bars", len(bars)),
	)

	y.cache.Set(cacheKey, bars)
	return bars, nil
}

// GetStatements returns the raw statement tables for one cadence.
func (y *Yahoo) GetStatements(ctx context.Context, symbol string, quarterly bool) (*models.StatementHistory, error) {
	modules := annualModules
	cacheKey := "statements:annual:" + symbol
	if quarterly {
		modules = quarterModules
		cacheKey = "statements:quarterly:" + symbol
	}
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(*models.StatementHistory), nil
	}

	result, err := y.quoteSummary(ctx, symbol, modules)
	if err != nil {
		return nil, err
	}

	hist := &models.StatementHistory{}
	if quarterly {
		if result.IncomeStatementHistoryQuarterly != nil {
			hist.Income = parseStatements(result.IncomeStatementHistoryQuarterly.Statements)
		}
		if result.BalanceSheetHistoryQuarterly != nil {
			hist.BalanceSheet = parseStatements(result.BalanceSheetHistoryQuarterly.Statements)
		}
		if result.CashflowStatementHistoryQuarterly != nil {
			hist.CashFlow = parseStatements(result.CashflowStatementHistoryQuarterly.Statements)
		}
	} else {
		if result.IncomeStatementHistory != nil {
			hist.Income = parseStatements(result.IncomeStatementHistory.Statements)
		}
		if result.BalanceSheetHistory != nil {
			hist.BalanceSheet = parseStatements(result.BalanceSheetHistory.Statements)
		}
		if result.CashflowStatementHistory != nil {
			hist.CashFlow = parseStatements(result.CashflowStatementHistory.Statements)
		}
	}

	y.cache.SetWithTTL(cacheKey, hist, y.statementTTL)
	return hist, nil
}

// GetTreasuryYield fetches the 10-year treasury yield. The index quotes the
// yield in percent, so 4.5 on the wire means 0.045 here.
func (y *Yahoo) GetTreasuryYield(ctx context.Context) (float64, error) {
	cacheKey := "treasury:" + y.treasurySym
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(float64), nil
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d",
		y.baseURL, url.PathEscape(y.treasurySym))

	var resp yfChartResponse
	if err := y.fetchJSON(ctx, u, &resp); err != nil {
		return 0, fmt.Errorf("treasury yield: %w", err)
	}
	if resp.Chart.Error != nil {
		return 0, fmt.Errorf("treasury yield: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || resp.Chart.Result[0].Meta.RegularMarketPrice <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoData, y.treasurySym)
	}

	yield := resp.Chart.Result[0].Meta.RegularMarketPrice / 100
	y.cache.Set(cacheKey, yield)
	return yield, nil
}

// quoteSummary fetches the v10 quoteSummary endpoint for a module set.
func (y *Yahoo) quoteSummary(ctx context.Context, symbol, modules string) (*yfQuoteSummaryResult, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		y.baseURL, url.PathEscape(symbol), url.QueryEscape(modules))

	var resp yfQuoteSummaryResponse
	if err := y.fetchJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("quoteSummary %s: %w", symbol, err)
	}
	if e := resp.QuoteSummary.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return nil, fmt.Errorf("quoteSummary %s: %s", symbol, e.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return &resp.QuoteSummary.Result[0], nil
}

// parseStatements converts raw statement maps into StatementPeriods. Entries
// without a parseable endDate are dropped; metadata keys are skipped.
func parseStatements(raws []map[string]yfFinVal) []models.StatementPeriod {
	periods := make([]models.StatementPeriod, 0, len(raws))
	for _, stmt := range raws {
		end, ok := stmt["endDate"]
		if !ok || end.Raw == nil {
			continue
		}
		p := models.StatementPeriod{
			EndDate: time.Unix(int64(*end.Raw), 0).UTC(),
			Fields:  make(map[string]float64, len(stmt)),
		}
		for k, v := range stmt {
			if k == "endDate" || k == "maxAge" || v.Raw == nil {
				continue
			}
			p.Fields[k] = *v.Raw
		}
		periods = append(periods, p)
	}
	return periods
}

func parseBars(result yfChartResult) []models.Bar {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	q := result.Indicators.Quote[0]
	bars := make([]models.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		b := models.Bar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			b.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			b.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			b.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.Volume = *q.Volume[i]
		}
		bars = append(bars, b)
	}
	return bars
}

func raw(n *yfNum) float64 {
	if n == nil {
		return 0
	}
	return n.Raw
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
