package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/etfscope/internal/analysis"
	"github.com/wonny/etfscope/internal/attribution"
	"github.com/wonny/etfscope/internal/classifier"
	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/external/krx"
	"github.com/wonny/etfscope/internal/external/naver"
	"github.com/wonny/etfscope/internal/external/yahoo"
	"github.com/wonny/etfscope/internal/holdings"
	"github.com/wonny/etfscope/internal/market"
	"github.com/wonny/etfscope/internal/metrics"
	"github.com/wonny/etfscope/internal/resolver"
	"github.com/wonny/etfscope/internal/store"
	"github.com/wonny/etfscope/pkg/config"
	"github.com/wonny/etfscope/pkg/database"
	"github.com/wonny/etfscope/pkg/httputil"
	"github.com/wonny/etfscope/pkg/logger"
	"github.com/wonny/etfscope/pkg/redis"
)

// app holds the wired dependencies shared by every command
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg *config.Config
	log *logger.Logger
	rec *metrics.Recorder

	redis   *redis.Client
	limiter *redis.RateLimiter
	db      *database.DB // DATABASE_URL 이 있을 때만

	krx   *krx.Client
	naver *naver.Client
	yahoo *yahoo.Client
	store *store.PriceStore
}

// newApp loads config and builds every client. Close must be called.
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if priceSource != "" {
		switch priceSource {
		case config.PriceSourceNaver, config.PriceSourceDB, config.PriceSourceYahoo:
			cfg.Analysis.PriceSource = priceSource
		default:
			return nil, fmt.Errorf("--price-source must be one of: naver, db, yahoo")
		}
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}
	if cfg.MetricsEnabled {
		a.rec = metrics.New()
	}

	// 3. Redis (optional rate limiter)
	a.redis, err = redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.limiter = redis.NewRateLimiter(a.redis, "etfscope")

	// 4. Database (optional price store)
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.store = store.NewPriceStore(db.Pool)
	}
	if cfg.Analysis.PriceSource == config.PriceSourceDB && a.store == nil {
		a.Close()
		return nil, fmt.Errorf("price source db: %w", database.ErrNotConfigured)
	}

	// 5. External clients (provider 별 HTTP client: 헤더/레이트리밋이 다름)
	a.krx = krx.NewClient(a.httpClient(redis.KRXRateLimit).WithHeader("Referer", krx.Referer()), log).
		WithBaseURL(cfg.KRX.BaseURL)
	a.naver = naver.NewClient(a.httpClient(redis.NaverRateLimit), log).
		WithBaseURLs(cfg.Naver.BaseURL, cfg.Naver.ChartBaseURL)
	a.yahoo = yahoo.NewClient(log, a.rec).WithRateLimiter(a.limiter, redis.YahooRateLimit)

	log.WithFields(map[string]interface{}{
		"env":          cfg.Env,
		"price_source": cfg.Analysis.PriceSource,
		"redis":        a.redis.Enabled(),
		"database":     a.db != nil,
	}).Debug("Dependencies initialized")

	return a, nil
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *app) httpClient(limit redis.RateLimitConfig) *httputil.Client {
	return httputil.New(a.cfg, a.log).WithRateLimiter(a.limiter, limit)
}

// constituentPrices returns the configured constituent source, with Yahoo behind it for foreign symbols
func (a *app) constituentPrices() contracts.PriceSource {
	switch a.cfg.Analysis.PriceSource {
	case config.PriceSourceDB:
		return analysis.PriceChain{a.store, a.yahoo}
	case config.PriceSourceYahoo:
		return a.yahoo
	default:
		return analysis.PriceChain{a.naver, a.yahoo}
	}
}

// universeSource lists ETFs from the KRX portal, falling back to Naver's ETF list
func (a *app) universeSource() contracts.UniverseSource {
	return analysis.UniverseChain{a.krx, a.naver}
}

// holdingsSource is the KRX PDF, then YAML snapshots when --holdings-dir is set
func (a *app) holdingsSource() contracts.HoldingsSource {
	if holdingsDir == "" {
		return a.krx
	}
	return holdings.Chain{a.krx, holdings.NewFileSource(holdingsDir)}
}

// analysisService wires the analysis pipeline; withNames resolves constituent display names
func (a *app) analysisService(withNames bool) (*analysis.Service, error) {
	src := analysis.Sources{
		ETFPrices:    analysis.PriceChain{a.krx, a.yahoo},
		Benchmark:    analysis.PriceChain{a.krx.Indexes(), a.yahoo},
		Holdings:     a.holdingsSource(),
		Constituents: a.constituentPrices(),
	}
	if withNames {
		src.Names = analysis.NameChain{a.naver, a.yahoo}
	}

	cfg := analysis.Config{
		Attribution: attribution.Config{
			TopN:        a.cfg.Analysis.TopN,
			Concurrency: a.cfg.Analysis.Concurrency,
		},
		FetchSpacing: a.cfg.Analysis.FetchSpacing,
		Benchmark:    a.cfg.Analysis.BenchmarkIndex,
	}
	return analysis.NewService(cfg, src, a.log, a.rec)
}

// listingResolver registers every listing-date provider behind its own circuit breaker
func (a *app) listingResolver() *resolver.Resolver[time.Time] {
	st := resolver.DefaultBreakerSettings()
	r := resolver.New[time.Time](a.log, a.rec).
		Register(resolver.ProviderYahoo, resolver.WithBreaker[time.Time](resolver.ProviderYahoo, a.yahoo, st)).
		Register(resolver.ProviderKRX, resolver.WithBreaker[time.Time](resolver.ProviderKRX, a.krx, st))
	if a.store != nil {
		r.Register(resolver.ProviderDB, a.store)
	}
	return r
}

func (a *app) listingPlan() (resolver.Plan, error) {
	plan, err := resolver.ListingDatePlan(a.cfg.Analysis.PlanFile)
	if err != nil {
		return nil, fmt.Errorf("load listing-date plan: %w", err)
	}
	return plan, nil
}

func (a *app) classifier() (*classifier.Classifier, error) {
	c, err := classifier.NewFromFile(a.cfg.Analysis.KeywordsFile)
	if err != nil {
		return nil, fmt.Errorf("load classifier keywords: %w", err)
	}
	return c, nil
}

// dashboard is KOSPI/KOSDAQ from the KRX index feed, USD/KRW from Yahoo and KRX bond yields
func (a *app) dashboard() *market.Dashboard {
	indexes := a.krx.Indexes()
	return market.NewDashboard([]market.Series{
		{Name: market.NameKOSPI, Symbol: krx.IndexKOSPI, Source: indexes},
		{Name: market.NameKOSDAQ, Symbol: krx.IndexKOSDAQ, Source: indexes},
		{Name: market.NameUSDKRW, Symbol: a.cfg.Yahoo.USDKRWSymbol, Source: a.yahoo},
	}, a.krx, a.log)
}

// exitError keeps sentinel errors readable on the command line
func exitError(err error) error {
	switch {
	case errors.Is(err, contracts.ErrNoData):
		return fmt.Errorf("데이터 없음: %w", err)
	case errors.Is(err, contracts.ErrInvalidRange):
		return fmt.Errorf("잘못된 기간: %w", err)
	}
	return err
}
