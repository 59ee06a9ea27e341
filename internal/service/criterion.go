package service

import (
	"sort"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
)

// DefaultThresholds is the canonical day-count set: five years since filing,
// four years since filing, five months in the office.
var DefaultThresholds = models.Thresholds{Aged: 1825, Approaching: 1460, LongInOffice: 150}

// LegacyThresholds reproduces the older spreadsheet variant.
var LegacyThresholds = models.Thresholds{Aged: 1765, Approaching: 1220, LongInOffice: 150}

// Classify returns the urgency tier for the given ages in days. Malformed
// inputs are expected as -1 and fall through to the load-date tier.
func Classify(ageInSystem, daysInOffice int, t models.Thresholds) models.Criterion {
	switch {
	case ageInSystem >= t.Aged:
		return models.CriterionAged
	case ageInSystem >= t.Approaching:
		return models.CriterionApproaching
	case daysInOffice >= t.LongInOffice:
		return models.CriterionLongInOffice
	default:
		return models.CriterionLoadDate
	}
}

// ClassifyCase yields the empty marker for a case without id.
func ClassifyCase(c models.Case, t models.Thresholds) models.Criterion {
	if c.ID == "" {
		return models.CriterionNone
	}
	return Classify(c.AgeInSystem, c.DaysInOffice, t)
}

func classifyAll(cases []models.Case, t models.Thresholds) {
	for i := range cases {
		cases[i].Criterion = ClassifyCase(cases[i], t)
	}
}

func priorityLess(a, b models.Case) bool {
	if ra, rb := a.Criterion.Rank(), b.Criterion.Rank(); ra != rb {
		return ra < rb
	}
	if a.DaysInOffice != b.DaysInOffice {
		return a.DaysInOffice > b.DaysInOffice
	}
	return a.Seq < b.Seq
}

func sortByPriority(cases []models.Case) {
	sort.SliceStable(cases, func(i, j int) bool {
		return priorityLess(cases[i], cases[j])
	})
}

func sortByReviewer(cases []models.Case) {
	sort.SliceStable(cases, func(i, j int) bool {
		if cases[i].AssignedReviewer != cases[j].AssignedReviewer {
			return cases[i].AssignedReviewer < cases[j].AssignedReviewer
		}
		return priorityLess(cases[i], cases[j])
	})
}
