package ingest

import (
	"fmt"
	"strings"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/tabular"
)

// ParseRoster reads the availability table. Every listed reviewer is returned;
// only rows with disponibilidade "sim" are Available. A table without the
// availability column marks everybody available.
func ParseRoster(t tabular.Table) ([]models.Reviewer, error) {
	if missing := t.Missing(ColInformantes); len(missing) > 0 {
		return nil, &MissingColumnsError{Table: "disponibilidade", Columns: missing}
	}
	hasAvailability := t.Has(ColDisponibilidade)

	seen := map[string]int{}
	var out []models.Reviewer
	for _, row := range t.Rows {
		name := models.NormalizeName(t.Get(row, ColInformantes))
		if name == "" {
			continue
		}
		available := true
		if hasAvailability {
			available = strings.EqualFold(strings.TrimSpace(t.Get(row, ColDisponibilidade)), "sim")
		}
		r := models.Reviewer{
			Name:      name,
			Email:     strings.TrimSpace(t.Get(row, ColEmail)),
			Available: available,
		}
		if i, dup := seen[name]; dup {
			// a later "sim" row wins over an earlier "nao"
			if available && !out[i].Available {
				out[i] = r
			}
			continue
		}
		seen[name] = len(out)
		out = append(out, r)
	}
	return out, nil
}

// Emails maps available reviewer names to their e-mail address.
func Emails(roster []models.Reviewer) map[string]string {
	out := map[string]string{}
	for _, r := range roster {
		if r.Available && r.Email != "" {
			out[r.Name] = r.Email
		}
	}
	return out
}

// ParsePrevious reads the previous run's Principal output. A table lacking the
// required columns yields ErrMalformedPrevious so the caller can skip
// continuity.
func ParsePrevious(t tabular.Table) (models.PreviousRun, error) {
	if missing := t.Missing(ColProcesso, ColInformante); len(missing) > 0 {
		return nil, fmt.Errorf("%w: faltam %s", ErrMalformedPrevious, strings.Join(missing, ", "))
	}
	prev := models.PreviousRun{}
	for _, row := range t.Rows {
		id := normalizeID(t.Get(row, ColProcesso))
		name := models.NormalizeName(t.Get(row, ColInformante))
		if id == "" || name == "" {
			continue
		}
		prev[id] = name
	}
	return prev, nil
}
