package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jakechorley/venue-rota/pkg/core/allocator"
	"github.com/jakechorley/venue-rota/pkg/core/services"
)

const openCell = "—"

// gridStyle decorates the parts of a rendered grid
type gridStyle struct {
	header    func(string) string
	separator func(string) string
	open      func(string) string
}

func plain(s string) string { return s }

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	openStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	titleStyle     = lipgloss.NewStyle().Bold(true)

	plainGrid = gridStyle{header: plain, separator: plain, open: plain}
	termGrid  = gridStyle{
		header:    styled(headerStyle),
		separator: styled(separatorStyle),
		open:      styled(openStyle),
	}
)

// styled adapts a lipgloss style to a single-string decorator
func styled(style lipgloss.Style) func(string) string {
	return func(s string) string { return style.Render(s) }
}

// formatGrid renders a schedule as one row per location and one column per date.
// Padding is computed on the undecorated text so styles do not skew the columns.
func formatGrid(view *services.ScheduleView, style gridStyle) string {
	headers := []string{"Location"}
	for _, d := range view.Dates {
		headers = append(headers, d.Format("Mon 02/01"))
	}

	table := [][]string{headers}
	for _, row := range view.Rows {
		line := []string{row.LocationName}
		for _, cell := range row.Cells {
			if cell == "" {
				cell = openCell
			}
			line = append(line, cell)
		}
		table = append(table, line)
	}

	widths := make([]int, len(headers))
	for _, line := range table {
		for i, cell := range line {
			widths[i] = max(widths[i], len([]rune(cell)))
		}
	}

	var b strings.Builder
	for n, line := range table {
		var row strings.Builder
		for i, cell := range line {
			if i > 0 {
				row.WriteString("  ")
			}
			padding := strings.Repeat(" ", widths[i]-len([]rune(cell)))
			if n > 0 && i > 0 && cell == openCell {
				cell = style.open(cell)
			}
			row.WriteString(cell)
			row.WriteString(padding)
		}

		if n == 0 {
			b.WriteString(style.header(row.String()))
			b.WriteString("\n")

			dashes := make([]string, len(widths))
			for i, w := range widths {
				dashes[i] = strings.Repeat("-", w)
			}
			b.WriteString(style.separator(strings.Join(dashes, "  ")))
			b.WriteString("\n")
			continue
		}

		b.WriteString(row.String())
		b.WriteString("\n")
	}
	return b.String()
}

// formatPreview lists the proposed schedule one slot per line
func formatPreview(items []services.PreviewItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s  %-20s  %s\n", "Date", "Location", "Worker")
	fmt.Fprintf(&b, "%s  %s  %s\n", strings.Repeat("-", 12), strings.Repeat("-", 20), strings.Repeat("-", 20))
	for _, item := range items {
		worker := openCell
		if item.WorkerName != nil {
			worker = *item.WorkerName
		}
		fmt.Fprintf(&b, "%-12s  %-20s  %s\n", item.Date, item.LocationID, worker)
	}
	return b.String()
}

func printPreview(items []services.PreviewItem) {
	fmt.Printf("📅 Proposed Schedule:\n\n")
	fmt.Print(formatPreview(items))
	fmt.Println()
}

func printValidationErrors(errs []allocator.SlotValidationError) {
	if len(errs) == 0 {
		return
	}

	fmt.Printf("⚠️  Validation Findings (%d):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("  • [%s] %s %s: %s\n", e.CriterionName, e.Date, e.LocationID, e.Description)
	}
	fmt.Println()
}
