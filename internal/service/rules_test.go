package service

import (
	"testing"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
)

func TestMatchRuleSpecificity(t *testing.T) {
	rules := []models.Rule{
		{Index: 0, Reviewer: "ANA", NatureGroup: models.Wildcard, OriginOffice: models.Wildcard},
		{Index: 1, Reviewer: "BETO", NatureGroup: "X", OriginOffice: models.Wildcard},
		{Index: 2, Reviewer: "CARLA", NatureGroup: "X", OriginOffice: "O1"},
	}
	for _, tc := range []struct {
		nature, origin, want string
	}{
		{"X", "O1", "CARLA"},
		{"X", "O2", "BETO"},
		{"Y", "O1", "ANA"},
	} {
		r, ok := MatchRule(models.Case{NatureGroup: tc.nature, OriginOffice: tc.origin}, rules)
		if !ok || r.Reviewer != tc.want {
			t.Fatalf("(%s,%s): got %v %v, want %s", tc.nature, tc.origin, r.Reviewer, ok, tc.want)
		}
	}
}

func TestMatchRuleTieGoesToFirstDeclared(t *testing.T) {
	rules := []models.Rule{
		{Index: 3, Reviewer: "LATE", NatureGroup: "X", OriginOffice: models.Wildcard},
		{Index: 1, Reviewer: "EARLY", NatureGroup: models.Wildcard, OriginOffice: "O1"},
	}
	r, ok := MatchRule(models.Case{NatureGroup: "X", OriginOffice: "O1"}, rules)
	if !ok || r.Reviewer != "EARLY" {
		t.Fatalf("expected EARLY, got %s", r.Reviewer)
	}
	if _, ok := MatchRule(models.Case{NatureGroup: "Q", OriginOffice: "Q"}, rules); ok {
		t.Fatalf("expected no match")
	}
}

func TestApplyRoutingRules(t *testing.T) {
	cfg := normalized(t, models.RunConfig{
		Reviewers: []models.Reviewer{
			{Name: "ANA", Available: true, OnlyLocked: true},
			{Name: "BETO", Available: true, AcceptedNatures: []string{"Y"}},
			reviewer("CARLA"),
		},
		Rules: []models.Rule{
			{Reviewer: "ANA", NatureGroup: "X", OriginOffice: "O1", Exclusive: true},
			{Reviewer: "ANA", NatureGroup: "X", OriginOffice: "O2"},
			{Reviewer: "BETO", NatureGroup: "Z"},
			{Reviewer: "CARLA", NatureGroup: "Y"},
		},
	})
	cases := []models.Case{
		caseOf("1", "X", "O1", 0, 0),
		caseOf("2", "X", "O2", 0, 0),
		caseOf("3", "Z", "O1", 0, 0),
		caseOf("4", "Y", "O1", 0, 0),
		caseOf("5", "Q", "O1", 0, 0),
	}
	assigned, remaining := ApplyRoutingRules(cases, cfg)
	got := byID(assigned)

	if c := got["1"]; c.AssignedReviewer != "ANA" || !c.Locked {
		t.Fatalf("exclusive rule must assign and lock even an only-locked reviewer: %+v", c)
	}
	if _, ok := got["2"]; ok {
		t.Fatalf("non-exclusive rule must not assign to an only-locked reviewer")
	}
	if _, ok := got["3"]; ok {
		t.Fatalf("non-exclusive rule must respect the target whitelist")
	}
	if c := got["4"]; c.AssignedReviewer != "CARLA" || c.Locked {
		t.Fatalf("expected unlocked CARLA, got %+v", c)
	}
	if len(remaining) != 3 {
		t.Fatalf("expected 3 remaining cases, got %d", len(remaining))
	}
	for _, c := range remaining {
		if c.AssignedReviewer != "" || c.Locked {
			t.Fatalf("remaining case must be untouched: %+v", c)
		}
	}
}
