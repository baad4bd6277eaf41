package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	env         string
	verbose     bool
	priceSource string
	holdingsDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "etfscope",
	Short: "ETF 성과 분석 - 수익률, 위험지표, 구성종목 기여도",
	Long: `etfscope Unified CLI

ETF 의 기간 수익률을 벤치마크와 비교하고 (Sharpe, Treynor, Beta, 초과수익률)
공시 구성종목(PDF) 별 기여도를 계산합니다.

Usage:
  go run ./cmd/etfscope [command]

Examples:
  go run ./cmd/etfscope analyze 069500 --start 2024-01-02 --end 2024-03-29
  go run ./cmd/etfscope listing-date 069500
  go run ./cmd/etfscope universe
  go run ./cmd/etfscope market
  go run ./cmd/etfscope api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&priceSource, "price-source", "", "constituent price source override (naver|db|yahoo)")
	rootCmd.PersistentFlags().StringVar(&holdingsDir, "holdings-dir", "", "YAML holdings snapshots for foreign ETFs (<dir>/<etf>/<YYYY-MM-DD>.yaml)")
}
