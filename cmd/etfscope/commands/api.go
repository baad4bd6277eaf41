package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/etfscope/internal/api"
	"github.com/wonny/etfscope/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                          - Health check
  GET  /metrics                         - Prometheus metrics (METRICS_ENABLED)
  GET  /api/analysis                    - ETF 분석 (etf, start, end, benchmark, sort, dir)
  POST /api/analysis/selection-sum      - 선택 셀 합계
  GET  /api/listing-date/{code}         - 상장일 조회
  GET  /api/universe                    - 분석 대상 ETF 목록 (?all=true)
  GET  /api/market                      - 시장 현황

Example:
  go run ./cmd/etfscope api
  go run ./cmd/etfscope api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort  string
	apiNames bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().BoolVar(&apiNames, "names", false, "구성종목 표시 이름 조회")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	svc, err := a.analysisService(apiNames)
	if err != nil {
		return err
	}
	plan, err := a.listingPlan()
	if err != nil {
		return err
	}
	c, err := a.classifier()
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Handlers{
		Analysis: handlers.NewAnalysisHandler(svc, a.log),
		Listing:  handlers.NewListingHandler(a.listingResolver(), plan, a.log),
		Universe: handlers.NewUniverseHandler(a.universeSource(), c, a.log),
		Market:   handlers.NewMarketHandler(a.dashboard()),
	}, a.rec, a.log)

	server := api.New(a.cfg, a.log, router)

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
