package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/resolver"
)

// listingDateCmd represents the listing-date command
var listingDateCmd = &cobra.Command{
	Use:   "listing-date [code...]",
	Short: "상장일(첫 거래일) 조회",
	Long: `여러 소스를 순서대로 시도해 첫 거래일을 찾습니다.

기본 순서 (LISTING_DATE_PLAN_FILE 로 변경 가능):
  1. Yahoo: 입력 그대로
  2. Yahoo: .KS
  3. Yahoo: .KQ
  4. KRX:   6자리 코드

Example:
  go run ./cmd/etfscope listing-date 069500
  go run ./cmd/etfscope listing-date 069500 005930.KS`,
	Args: cobra.MinimumNArgs(1),
	RunE: runListingDate,
}

func init() {
	rootCmd.AddCommand(listingDateCmd)
}

func runListingDate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	plan, err := a.listingPlan()
	if err != nil {
		return err
	}
	r := a.listingResolver()

	failed := 0
	for _, code := range args {
		date, attempt, err := r.Resolve(ctx, code, resolver.KeyListingDate, plan)
		if err != nil {
			failed++
			fmt.Printf("❌ %-12s %v\n", code, err)
			continue
		}
		fmt.Printf("✅ %-12s %s  (%s, %s)\n", code, date.Format(contracts.DateLayout), attempt.Provider, attempt.Variant)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d lookups failed", failed, len(args))
	}
	return nil
}
