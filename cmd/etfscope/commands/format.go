package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/wonny/etfscope/internal/analysis"
	"github.com/wonny/etfscope/internal/attribution"
	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/ranking"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a formatted section header
func PrintHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	PrintDoubleSeparator(w)
	fmt.Fprintf(w, "  %s\n", title)
	PrintSeparator(w)
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintReport renders the summary block, metrics and the ranked attribution table
func PrintReport(w io.Writer, report *analysis.Report, state ranking.State) {
	PrintHeader(w, fmt.Sprintf("%s  (%s)", report.ETF.Label(), report.Period))

	fmt.Fprintf(w, "  Start Price   : %.2f\n", report.StartPrice)
	fmt.Fprintf(w, "  End Price     : %.2f\n", report.EndPrice)
	fmt.Fprintf(w, "  Total Return  : %.2f%% (%s)\n", report.TotalReturn, report.ReturnBasis)
	fmt.Fprintf(w, "  Benchmark     : %s  %s\n", report.Benchmark, percent(report.BenchmarkReturn))
	PrintSeparator(w)
	fmt.Fprintf(w, "  Sharpe        : %s\n", report.Metrics.Sharpe.Format("%.3f"))
	fmt.Fprintf(w, "  Treynor       : %s\n", report.Metrics.Treynor.Format("%.3f"))
	fmt.Fprintf(w, "  Excess Return : %s\n", percent(report.Metrics.ExcessReturn))
	fmt.Fprintf(w, "  Beta          : %s\n", report.Metrics.Beta.Format("%.3f"))
	PrintSeparator(w)

	rows := ranking.Sort(attribution.Ranked(report.Holdings), state.Column, state.Direction)
	if len(rows) == 0 {
		fmt.Fprintln(w, "  (구성종목 데이터 없음)")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		headers := make([]string, 0, len(ranking.Columns()))
		for _, col := range ranking.Columns() {
			headers = append(headers, strings.ToUpper(col.String()))
		}
		fmt.Fprintln(tw, strings.Join(headers, "\t")+"\t")
		for _, h := range rows {
			cells := make([]string, 0, len(ranking.Columns()))
			for _, col := range ranking.Columns() {
				cells = append(cells, ranking.Cell(h, col))
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
		}
		tw.Flush()
	}

	PrintSeparator(w)
	s := report.Summary
	if s.AsOf != "" {
		fmt.Fprintf(w, "  PDF 기준일     : %s\n", s.AsOf)
	}
	fmt.Fprintf(w, "  구성종목       : %d (계산 %d, 가격확보 %d)\n", s.Holdings, s.Attributed, s.Resolved)
	fmt.Fprintf(w, "  계산 비중 합계  : %.2f%%\n", s.AttributedWeight)
	fmt.Fprintf(w, "  기여도 합계     : %.2f%%p\n", s.TotalContribution)
	for _, warn := range report.Warnings {
		PrintWarning(w, warn)
	}
	PrintDoubleSeparator(w)
}

func percent(r contracts.Ratio) string {
	if !r.Valid {
		return contracts.NotAvailable
	}
	return r.Format("%.2f") + "%"
}
