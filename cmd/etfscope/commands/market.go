package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// marketCmd represents the market command
var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "시장 현황 (KOSPI, KOSDAQ, USD/KRW, 국고채/회사채 금리)",
	Long: `최근 종가와 전일 대비 변화를 출력합니다. 항목별 실패는 "Error" 로 표시됩니다.

Example:
  go run ./cmd/etfscope market`,
	RunE: runMarket,
}

func init() {
	rootCmd.AddCommand(marketCmd)
}

func runMarket(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.dashboard().Snapshot(ctx)

	PrintHeader(os.Stdout, "Market ("+snap.RefDate+")")
	for _, q := range snap.Quotes {
		fmt.Printf("  %-14s : %s\n", q.Name, q.String())
	}
	PrintDoubleSeparator(os.Stdout)
	return nil
}
