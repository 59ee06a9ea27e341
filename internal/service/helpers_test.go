package service

import (
	"fmt"
	"testing"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
)

func reviewer(name string) models.Reviewer {
	return models.Reviewer{Name: name, Available: true}
}

func normalized(t *testing.T, cfg models.RunConfig) models.RunConfig {
	t.Helper()
	out, _, err := NormalizeConfig(cfg)
	if err != nil {
		t.Fatalf("normalize config: %v", err)
	}
	return out
}

func caseOf(id, nature, origin string, age, days int) models.Case {
	return models.Case{ID: id, NatureGroup: nature, OriginOffice: origin, AgeInSystem: age, DaysInOffice: days}
}

// batch builds n cases of one nature with decreasing days in office so the
// visiting order equals the id order.
func batch(prefix, nature string, n int) []models.Case {
	out := make([]models.Case, n)
	for i := range out {
		out[i] = caseOf(fmt.Sprintf("%s%02d", prefix, i), nature, "ORG", 10, 1000-i)
		out[i].Seq = i
	}
	return out
}

func countBy(cases []models.Case) map[string]int {
	out := map[string]int{}
	for _, c := range cases {
		out[c.AssignedReviewer]++
	}
	return out
}

func byID(cases []models.Case) map[string]models.Case {
	out := map[string]models.Case{}
	for _, c := range cases {
		out[c.ID] = c
	}
	return out
}
