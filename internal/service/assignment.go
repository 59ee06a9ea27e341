package service

import (
	"fmt"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
)

const (
	PoolGeneral = "GERAL"
	PoolSpecial = "ESPECIAL"
)

// Accepts reports whether the reviewer's whitelist admits the case. An empty
// filter accepts everything; when both filters are set both must match.
func Accepts(r models.Reviewer, natureGroup, originOffice string) bool {
	if len(r.AcceptedNatures) > 0 && !contains(r.AcceptedNatures, natureGroup) {
		return false
	}
	if len(r.AcceptedOrigins) > 0 && !contains(r.AcceptedOrigins, originOffice) {
		return false
	}
	return true
}

type roster struct {
	byName map[string]models.Reviewer
}

func newRoster(cfg models.RunConfig) roster {
	r := roster{byName: make(map[string]models.Reviewer, len(cfg.Reviewers))}
	for _, rev := range cfg.Reviewers {
		r.byName[rev.Name] = rev
	}
	return r
}

func (r roster) get(name string) (models.Reviewer, bool) {
	rev, ok := r.byName[name]
	return rev, ok
}

func (r roster) available(name string) bool {
	rev, ok := r.byName[name]
	return ok && rev.Available
}

func (r roster) onlyLocked(name string) bool {
	return r.byName[name].OnlyLocked
}

// accepts treats names outside the roster as having no filters.
func (r roster) accepts(name string, c models.Case) bool {
	rev, ok := r.byName[name]
	if !ok {
		return true
	}
	return Accepts(rev, c.NatureGroup, c.OriginOffice)
}

// SelectPool returns the rotation pool serving the case's origin. The special
// pool falls back to the general one when it has nobody available.
func SelectPool(c models.Case, pools models.PoolTopology) (string, []string) {
	if pools.Mode == models.PoolModeTwoPool && contains(pools.SpecialOrigins, c.OriginOffice) {
		if len(pools.Special) > 0 {
			return PoolSpecial, pools.Special
		}
	}
	return PoolGeneral, pools.General
}

type candidateTier struct {
	Tier   models.FallbackTier
	Keep   func(r models.Reviewer, c models.Case) bool
	Reason string
}

// candidateTiers is evaluated in order; the first tier with any candidate wins.
var candidateTiers = []candidateTier{
	{
		Tier: models.TierT0,
		Keep: func(r models.Reviewer, c models.Case) bool {
			return !r.OnlyLocked && Accepts(r, c.NatureGroup, c.OriginOffice)
		},
	},
	{
		Tier: models.TierT1,
		Keep: func(r models.Reviewer, c models.Case) bool {
			return !r.OnlyLocked
		},
		Reason: "whitelist ignorada: nenhum informante do grupo aceita a natureza/órgão",
	},
	{
		Tier: models.TierT2,
		Keep: func(r models.Reviewer, c models.Case) bool {
			return r.OnlyLocked && Accepts(r, c.NatureGroup, c.OriginOffice)
		},
		Reason: "preferência 'somente exclusivos' ignorada: só restam informantes restritos a itens exclusivos",
	},
	{
		Tier: models.TierT3,
		Keep: func(r models.Reviewer, c models.Case) bool {
			return r.OnlyLocked
		},
		Reason: "whitelist e 'somente exclusivos' ignorados: último recurso",
	},
}

type CandidateStage struct {
	Tier       models.FallbackTier
	Candidates []string
}

type CandidateResult struct {
	Pool       string
	Candidates []string
	Tier       models.FallbackTier
	ReasonText string
	Stages     []CandidateStage
}

// FilterCandidates walks the tier cascade over the case's pool and stops at the
// first tier with at least one reviewer. Candidate order follows pool order.
func FilterCandidates(c models.Case, pools models.PoolTopology, rs roster) CandidateResult {
	poolName, members := SelectPool(c, pools)
	result := CandidateResult{Pool: poolName}

	reviewers := make([]models.Reviewer, 0, len(members))
	for _, name := range members {
		if rev, ok := rs.get(name); ok && rev.Available {
			reviewers = append(reviewers, rev)
		}
	}
	if len(reviewers) == 0 {
		result.Tier = models.TierNoCandidate
		result.ReasonText = fmt.Sprintf("nenhum informante disponível no grupo %s", poolName)
		return result
	}

	for _, tier := range candidateTiers {
		candidates := filterReviewers(reviewers, func(r models.Reviewer) bool {
			return tier.Keep(r, c)
		})
		result.Stages = append(result.Stages, CandidateStage{Tier: tier.Tier, Candidates: candidates})
		if len(candidates) == 0 {
			continue
		}
		result.Candidates = candidates
		result.Tier = tier.Tier
		if tier.Reason != "" {
			result.ReasonText = fmt.Sprintf("%s (natureza=%s, órgão=%s, grupo=%s)", tier.Reason, c.NatureGroup, c.OriginOffice, poolName)
		}
		return result
	}

	result.Tier = models.TierNoCandidate
	result.ReasonText = fmt.Sprintf("nenhum candidato em nenhum nível de fallback no grupo %s", poolName)
	return result
}

// PickRoundRobin selects candidates[counter % len(candidates)].
func PickRoundRobin(counter int, candidates []string) string {
	return candidates[counter%len(candidates)]
}

func filterReviewers(reviewers []models.Reviewer, keep func(models.Reviewer) bool) []string {
	out := make([]string, 0, len(reviewers))
	for _, r := range reviewers {
		if keep(r) {
			out = append(out, r.Name)
		}
	}
	return out
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
