package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/orbsim/internal/experiment"
)

var (
	panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899"))

	value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00ccff")).
		Bold(true)

	subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))
)

func row(name, val string) string {
	return label.Render(fmt.Sprintf("%-20s", name)) + value.Render(val)
}

// Summary renders the outcome of a run as a bordered panel.
func Summary(name string, res *experiment.Result) string {
	var b strings.Builder

	b.WriteString(title.Render(name))
	b.WriteString("\n\n")
	b.WriteString(row("steps", fmt.Sprintf("%d", res.Steps)) + "\n")
	b.WriteString(row("elapsed", res.Elapsed.String()) + "\n")
	b.WriteString(row("min kinetic energy", fmt.Sprintf("%.6g", res.MinKineticEnergy)) + "\n")
	b.WriteString(row("final kinetic energy", fmt.Sprintf("%.6g", res.Energy.Final)) + "\n")

	names := make([]string, 0, len(res.Metrics))
	for n := range res.Metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	if len(names) > 0 {
		b.WriteString("\n")
	}
	for _, n := range names {
		b.WriteString(row(n, fmt.Sprintf("%.6g", res.Metrics[n])) + "\n")
	}

	if len(res.Final) > 0 {
		b.WriteString("\n")
		b.WriteString(subtle.Render("final positions") + "\n")
	}
	for _, body := range res.Final {
		b.WriteString(row(body.ID, body.Position.String()) + "\n")
	}

	return panel.Render(strings.TrimRight(b.String(), "\n"))
}
