package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/vulnverified/blobsweep/internal/engine"
)

// WriteSubdomainTable renders resolved subdomains, already ordered by service.
func WriteSubdomainTable(w io.Writer, result *engine.SubdomainResult, noColor bool) {
	if len(result.Subdomains) == 0 {
		fmt.Fprintln(w, "\nNo subdomains discovered.")
		return
	}

	rows := make([][]string, 0, len(result.Subdomains))
	for _, s := range result.Subdomains {
		rows = append(rows, []string{s.Host, s.Service})
	}
	renderTable(w, []string{"Subdomain", "Service"}, rows, noColor)
}

// WriteContainerTable renders one row per public container, with its object
// count and a sample object.
func WriteContainerTable(w io.Writer, result *engine.ScanResult, noColor bool) {
	if len(result.Containers) == 0 {
		fmt.Fprintln(w, "\nNo public containers discovered.")
		return
	}

	type containerRow struct {
		endpoint string
		objects  int
		sample   string
	}

	byEndpoint := make(map[string]*containerRow)
	var order []string
	for _, c := range result.Containers {
		row, ok := byEndpoint[c.Endpoint]
		if !ok {
			row = &containerRow{endpoint: c.Endpoint}
			byEndpoint[c.Endpoint] = row
			order = append(order, c.Endpoint)
		}
		if c.Kind == engine.KindObject {
			row.objects++
			if row.sample == "" {
				row.sample = engine.ObjectName(c.URL)
			}
		}
	}

	rows := make([][]string, 0, len(order))
	for _, ep := range order {
		row := byEndpoint[ep]
		status := "public"
		if row.objects == 0 {
			status = "empty"
		}
		rows = append(rows, []string{
			row.endpoint,
			status,
			fmt.Sprintf("%d", row.objects),
			truncate(row.sample, 40),
		})
	}
	renderTable(w, []string{"Container", "Status", "Objects", "Sample"}, rows, noColor)
}

func renderTable(w io.Writer, headers []string, rows [][]string, noColor bool) {
	fmt.Fprintln(w)

	if noColor {
		writeSimpleTable(w, headers, rows)
		return
	}

	t := table.New().
		Headers(headers...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
			}
			return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
		})

	for _, row := range rows {
		t.Row(row...)
	}

	fmt.Fprintln(w, t.Render())
}

func writeSimpleTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			fmt.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(w)
	}

	writeRow(headers)
	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		writeRow(row)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
