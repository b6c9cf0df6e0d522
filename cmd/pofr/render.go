package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/katalvlaran/pofr/invertor"
)

var (
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(14)
)

// renderResult formats one batch result as a bordered block.
func renderResult(item invertor.BatchItem, res invertor.BatchResult) string {
	lines := []string{titleStyle.Render(res.Name)}
	if res.Err != nil {
		lines = append(lines, failStyle.Render("FAILED")+" "+res.Err.Error())
		return boxStyle.Render(strings.Join(lines, "\n"))
	}

	sol, d := res.Solution, res.Diagnostics
	row := func(label, format string, args ...any) {
		lines = append(lines, labelStyle.Render(label)+fmt.Sprintf(format, args...))
	}
	lines = append(lines, okStyle.Render("OK")+fmt.Sprintf(" in %s", sol.Elapsed.Round(time.Microsecond)))
	row("points", "%d", sol.Points)
	row("terms", "%d", sol.NTerms)
	row("alpha", "%.3g", item.Config.Alpha)
	row("dmax", "%.4g", sol.DMax)
	row("Rg", "%.4g ± %.2g", d.Rg, d.RgErr)
	row("I(0)", "%.4g ± %.2g", d.I0, d.I0Err)
	bg := "fixed"
	if sol.Estimated {
		bg = fmt.Sprintf("± %.2g", d.BackgroundErr)
	}
	row("background", "%.4g %s", d.Background, bg)
	row("chi2", "%.4g", d.Chi2)
	row("oscillations", "%d", d.Oscillations)
	row("positive", "%.3f ± %.3f (1σ %.3f)", d.PositiveFraction, d.PositiveFractionErr, d.PositiveFraction1Sigma)
	for _, w := range sol.Warnings {
		lines = append(lines, warnStyle.Render("warning: "+w.Error()))
	}

	return boxStyle.Render(strings.Join(lines, "\n"))
}
