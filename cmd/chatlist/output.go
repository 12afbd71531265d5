package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/chatlist/fanout"
)

const maxCellWidth = 60

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})

	fmt.Fprintln(w, t.Render())
}

// ellipsize keeps table cells on one line.
func ellipsize(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	if r := []rune(s); len(r) > maxCellWidth {
		return string(r[:maxCellWidth-3]) + "..."
	}

	return s
}

func printOutcome(w io.Writer, outcome fanout.Outcome) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("### %s (%s, %s)", outcome.ModelName, outcome.Provider, outcome.Duration.Round(time.Millisecond))))

	if outcome.Ok() {
		fmt.Fprintf(w, "%s\n\n", *outcome.Response)
	} else {
		fmt.Fprintf(w, "%s\n\n", errorStyle.Render("Error: "+*outcome.Error))
	}
}

func printWarning(w io.Writer, warning string) {
	fmt.Fprintln(w, warningStyle.Render("Warning: "+warning))
}
