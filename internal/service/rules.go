package service

import "github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"

// MatchRule returns the most specific rule matching the case. Equal scores go
// to the lowest declaration index.
func MatchRule(c models.Case, rules []models.Rule) (models.Rule, bool) {
	best := -1
	bestScore := -1
	for i, r := range rules {
		natureOK := r.NatureGroup == models.Wildcard || r.NatureGroup == c.NatureGroup
		originOK := r.OriginOffice == models.Wildcard || r.OriginOffice == c.OriginOffice
		if !natureOK || !originOK {
			continue
		}
		score := 0
		if r.NatureGroup != models.Wildcard {
			score++
		}
		if r.OriginOffice != models.Wildcard {
			score++
		}
		if score > bestScore || (score == bestScore && r.Index < rules[best].Index) {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return models.Rule{}, false
	}
	return rules[best], true
}

// ApplyRoutingRules assigns every case whose winning rule can take it.
// Exclusive rules always assign and lock. Ordinary rules assign only when the
// target accepts non-exclusive work and its whitelist admits the case;
// otherwise the case is left for redistribution untouched.
func ApplyRoutingRules(cases []models.Case, cfg models.RunConfig) (assigned, remaining []models.Case) {
	rs := newRoster(cfg)
	for _, c := range cases {
		rule, ok := MatchRule(c, cfg.Rules)
		if !ok || !rs.available(rule.Reviewer) {
			remaining = append(remaining, c)
			continue
		}
		if rule.Exclusive {
			c.AssignedReviewer = rule.Reviewer
			c.Locked = true
			assigned = append(assigned, c)
			continue
		}
		if rs.onlyLocked(rule.Reviewer) || !rs.accepts(rule.Reviewer, c) {
			remaining = append(remaining, c)
			continue
		}
		c.AssignedReviewer = rule.Reviewer
		c.Locked = false
		assigned = append(assigned, c)
	}
	return assigned, remaining
}
