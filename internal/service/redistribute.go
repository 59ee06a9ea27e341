package service

import "github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"

// Redistribute round-robins the cases over their pools. Cases are visited in
// priority order so urgent work is spread first. Every resolved case carries
// its fallback tier; cases with no reviewer at all come back in noCandidate.
func Redistribute(cases []models.Case, cfg models.RunConfig) (assigned, noCandidate []models.Case) {
	rs := newRoster(cfg)
	ordered := append([]models.Case(nil), cases...)
	sortByPriority(ordered)

	counters := map[string]int{}
	for _, c := range ordered {
		res := FilterCandidates(c, cfg.Pools, rs)
		if res.Tier == models.TierNoCandidate {
			c.AssignedReviewer = ""
			c.Locked = false
			c.FallbackTier = models.TierNoCandidate
			c.FallbackReason = res.ReasonText
			noCandidate = append(noCandidate, c)
			continue
		}

		key := counterKey(c.NatureGroup, res.Pool, cfg.RoundRobinScope)
		c.AssignedReviewer = PickRoundRobin(counters[key], res.Candidates)
		counters[key]++
		c.Locked = false
		c.FallbackTier = res.Tier
		c.FallbackReason = res.ReasonText
		assigned = append(assigned, c)
	}
	return assigned, noCandidate
}

func counterKey(nature, pool string, scope models.RoundRobinScope) string {
	if scope == models.ScopeNature {
		return nature
	}
	return pool + "\x00" + nature
}
