package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/aegis-value/internal/brain"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintRunResult prints the summary of one tick
func PrintRunResult(res *brain.RunResult) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Run %s (month %d)\n", res.RunID, res.Month)
	PrintSeparator()
	PrintKeyValue("Status", string(res.Status), 11)
	PrintKeyValue("Tick", res.TickAt.Format(dateLayout), 11)
	if !res.AsOf.IsZero() {
		PrintKeyValue("AsOf", res.AsOf.Format(dateLayout), 11)
		PrintKeyValue("Bond yield", fmt.Sprintf("%.2f%%", res.BondYield), 11)
	}
	PrintKeyValue("Universe", fmt.Sprintf("%d", res.Universe), 11)
	if res.Error != "" {
		PrintKeyValue("Stage", res.Stage.String(), 11)
		PrintKeyValue("Error", res.Error, 11)
	}
	PrintKeyValue("Duration", res.Duration.String(), 11)

	if len(res.Screens) > 0 {
		fmt.Println()
		widths := []int{20, 8, 30}
		PrintTableHeader([]string{"Screen", "Passed", "Excluded"}, widths)
		for _, sc := range res.Screens {
			PrintTableRow([]string{sc.ID, fmt.Sprintf("%d", sc.Passed), formatExcluded(sc.Excluded)}, widths)
		}
	}

	if len(res.Ranked) > 0 {
		fmt.Println()
		widths := []int{6, 10, 14}
		PrintTableHeader([]string{"Rank", "Code", "Value"}, widths)
		for _, rs := range res.Ranked {
			PrintTableRow([]string{fmt.Sprintf("%d", rs.Rank), rs.Code, fmt.Sprintf("%.4f", rs.Value)}, widths)
		}
	}

	if res.Plan != nil {
		fmt.Println()
		PrintKeyValue("Total", res.Plan.TotalValue.StringFixed(2), 11)
		PrintKeyValue("Per stock", res.Plan.PerPosition.StringFixed(2), 11)
		for _, a := range res.Plan.Actions() {
			fmt.Printf("   %-10s %-8s %s\n", a.Action, a.Code, a.TargetValue.StringFixed(2))
		}
	}
	PrintDoubleSeparator()
}

func formatExcluded(excluded map[string]int) string {
	if len(excluded) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(excluded))
	for reason, n := range excluded {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, n))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
