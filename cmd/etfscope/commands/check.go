package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/etfscope/internal/external/krx"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "외부 의존성 연결 확인",
	Long: `설정과 연결 상태를 확인합니다.

이 명령어는:
- config 로드
- Redis 연결 (REDIS_ENABLED=true 인 경우)
- PostgreSQL Ping / Connection Pool 통계 (DATABASE_URL 이 있는 경우)
- KRX 포털 응답 (KOSPI 최근 지수)

Example:
  go run ./cmd/etfscope check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== etfscope Dependency Check ===")

	a, err := newApp(cmd.Context())
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	defer a.Close()
	fmt.Printf("✅ Config loaded (ENV: %s, PRICE_SOURCE: %s)\n", a.cfg.Env, a.cfg.Analysis.PriceSource)

	if a.redis.Enabled() {
		fmt.Println("✅ Redis connected (distributed rate limit on)")
	} else {
		fmt.Println("-  Redis disabled (no distributed rate limit)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	if a.db != nil {
		status, err := a.db.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("❌ Database health check failed: %w", err)
		}
		fmt.Printf("✅ Database healthy (%v)\n", status.ResponseTime)
		fmt.Printf("   Max Connections: %d\n", status.Stats.MaxConns)
		fmt.Printf("   Total Connections: %d\n", status.Stats.TotalConns)
		fmt.Printf("   Idle Connections: %d\n", status.Stats.IdleConns)
	} else {
		fmt.Println("-  Database not configured")
	}

	end := time.Now()
	series, err := a.krx.FetchIndexHistory(ctx, krx.IndexKOSPI, end.AddDate(0, 0, -10), end)
	if err != nil {
		return fmt.Errorf("❌ KRX portal: %w", err)
	}
	if series.IsEmpty() {
		fmt.Println("⚠️  KRX portal answered with no KOSPI data")
	} else {
		last := series.Last()
		fmt.Printf("✅ KRX portal: KOSPI %.2f (%s)\n", last.Close, last.Date.Format("2006-01-02"))
	}

	fmt.Println("\n✅ All checks passed!")
	return nil
}
