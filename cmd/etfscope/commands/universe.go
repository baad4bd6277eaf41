package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/etfscope/internal/classifier"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "분석 대상 ETF 목록",
	Long: `KRX 의 전체 ETF 목록에서 해외/채권 ETF 를 제외한 국내 주식형 ETF 를 출력합니다.

Example:
  go run ./cmd/etfscope universe
  go run ./cmd/etfscope universe --all`,
	RunE: runUniverse,
}

var universeAll bool

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.Flags().BoolVar(&universeAll, "all", false, "제외된 ETF 와 사유도 출력")
}

func runUniverse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.classifier()
	if err != nil {
		return err
	}

	universe, err := a.universeSource().ListUniverse(ctx)
	if err != nil {
		return fmt.Errorf("list universe: %w", err)
	}

	excluded := make(map[classifier.Category]int)
	for _, inst := range universe {
		v := c.Classify(inst.Name)
		switch {
		case v.InScope:
			fmt.Println(inst.Label())
		case universeAll:
			excluded[v.Category]++
			fmt.Printf("%s  [%s: %s]\n", inst.Label(), v.Category, v.Keyword)
		default:
			excluded[v.Category]++
		}
	}

	fmt.Println()
	fmt.Printf("Total %d, excluded foreign %d, bond %d\n",
		len(universe), excluded[classifier.Foreign], excluded[classifier.Bond])
	return nil
}
