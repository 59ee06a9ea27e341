package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func renderSummary(sum service.RunSummary, written []string) string {
	c := sum.Counts
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Distribuição %s · %s", sum.Numero, sum.Mode)),
		row("Lidos", fmt.Sprint(sum.Ingest.Read)),
		row("Aceitos", fmt.Sprint(sum.Ingest.Accepted)),
		row("Suspensos", fmt.Sprint(sum.Ingest.Suspended)),
		row("Pré-atribuídos", fmt.Sprint(c.PreAssigned)),
		row("Principais", fmt.Sprint(c.Principal)),
		row("Travados por regra", fmt.Sprint(c.Locked)),
		row("Mantidos (continuidade)", fmt.Sprint(c.Carried)),
		row("Sem candidato", fmt.Sprint(c.NoCandidate)),
		row("E-mails enviados", fmt.Sprint(sum.EmailsSent)),
	}

	if len(c.ByTier) > 0 {
		tiers := make([]string, 0, len(c.ByTier))
		for tier, n := range c.ByTier {
			tiers = append(tiers, fmt.Sprintf("%s=%d", tier, n))
		}
		sort.Strings(tiers)
		lines = append(lines, row("Fallback", strings.Join(tiers, " ")))
	}

	names := make([]string, 0, len(c.ByReviewer))
	for name := range c.ByReviewer {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		lines = append(lines, "", titleStyle.Render("Por informante"))
		for _, name := range names {
			lines = append(lines, row(name, fmt.Sprint(c.ByReviewer[name])))
		}
	}

	if len(written) > 0 {
		lines = append(lines, "", titleStyle.Render("Arquivos"))
		lines = append(lines, written...)
	}
	for _, w := range sum.Warnings {
		lines = append(lines, warnStyle.Render("! "+w))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-24s", label)) + " " + value
}
