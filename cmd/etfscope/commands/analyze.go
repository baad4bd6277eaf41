package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/etfscope/internal/analysis"
	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/ranking"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [etf]",
	Short: "ETF 기간 성과 / 위험지표 / 구성종목 기여도",
	Long: `ETF 한 종목의 기간 성과를 분석합니다.

이 명령어는:
- ETF 총수익률 (NAV 가 있으면 NAV 기준)
- 벤치마크 대비 Sharpe, Treynor, Beta, 초과수익률
- 구성종목(PDF) 상위 N개의 수익률과 기여도

ETF 는 "069500" 또는 "069500 | KODEX 200" 형식을 받습니다.
해외 ETF 는 --holdings-dir 의 YAML 구성종목과 Yahoo 가격을 사용합니다.

Example:
  go run ./cmd/etfscope analyze 069500 --start 2024-01-02 --end 2024-03-29
  go run ./cmd/etfscope analyze 069500 --start 2024-01-02 --end 2024-03-29 --sort contribution --dir desc
  go run ./cmd/etfscope analyze QQQ --start 2024-01-02 --end 2024-03-28 --benchmark ^NDX --holdings-dir ./holdings`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeStart     string
	analyzeEnd       string
	analyzeBenchmark string
	analyzeSort      string
	analyzeDir       string
	analyzeNames     bool
	analyzeJSON      bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	end := time.Now()
	analyzeCmd.Flags().StringVar(&analyzeStart, "start", end.AddDate(0, -3, 0).Format(contracts.DateLayout), "시작일 (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeEnd, "end", end.Format(contracts.DateLayout), "종료일 (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeBenchmark, "benchmark", "", "벤치마크 (기본: ANALYSIS_BENCHMARK_INDEX)")
	analyzeCmd.Flags().StringVar(&analyzeSort, "sort", "", "정렬 컬럼 (symbol|name|weight|amount|return|contribution)")
	analyzeCmd.Flags().StringVar(&analyzeDir, "dir", "desc", "정렬 방향 (desc|asc|default)")
	analyzeCmd.Flags().BoolVar(&analyzeNames, "names", false, "구성종목 표시 이름 조회")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON 출력")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	period, err := contracts.NewDateRange(analyzeStart, analyzeEnd)
	if err != nil {
		return exitError(err)
	}

	state := ranking.State{Column: ranking.ColumnWeight, Direction: ranking.Default}
	if analyzeSort != "" {
		if state.Column, err = ranking.ParseColumn(analyzeSort); err != nil {
			return err
		}
		if state.Direction, err = ranking.ParseDirection(analyzeDir); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.analysisService(analyzeNames)
	if err != nil {
		return err
	}

	report, err := svc.Run(ctx, analysis.Request{
		ETF:       args[0],
		Benchmark: analyzeBenchmark,
		Period:    period,
	})
	if err != nil {
		return exitError(err)
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	PrintReport(os.Stdout, report, state)
	fmt.Println()
	return nil
}
