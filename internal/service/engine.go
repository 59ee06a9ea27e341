package service

import (
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
)

type Result struct {
	Config         models.RunConfig
	PreAssigned    []models.Case
	Principal      []models.Case
	NoCandidate    []models.Case
	PreLists       []models.ReviewerList
	PrincipalLists []models.ReviewerList
	StickReports   []models.StickReport
	Continuity     bool
	Warnings       []string
}

// Counts summarises a run for logs and the run record.
type Counts struct {
	PreAssigned   int                         `json:"pre_assigned"`
	Principal     int                         `json:"principal"`
	NoCandidate   int                         `json:"no_candidate"`
	Locked        int                         `json:"locked"`
	ByRule        int                         `json:"by_rule"`
	Carried       int                         `json:"carried"`
	ByTier        map[models.FallbackTier]int `json:"by_tier"`
	ByCriterion   map[models.Criterion]int    `json:"by_criterion"`
	ByReviewer    map[string]int              `json:"by_reviewer"`
	NoCandidateID []string                    `json:"no_candidate_ids,omitempty"`
}

// Run executes classification, routing rules, redistribution, continuity and
// list building. pre holds cases already bound to staff upstream; principal
// is the pool to distribute. prev may be nil.
func Run(pre, principal []models.Case, prev models.PreviousRun, cfg models.RunConfig) (Result, error) {
	norm, warnings, err := NormalizeConfig(cfg)
	if err != nil {
		return Result{}, err
	}
	res := Result{Config: norm, Warnings: warnings}

	res.PreAssigned = append([]models.Case(nil), pre...)
	classifyAll(res.PreAssigned, norm.Thresholds)

	pool := append([]models.Case(nil), principal...)
	classifyAll(pool, norm.Thresholds)

	byRule, remaining := ApplyRoutingRules(pool, norm)
	redistributed, noCandidate := Redistribute(remaining, norm)

	assigned := make([]models.Case, 0, len(byRule)+len(redistributed))
	assigned = append(assigned, byRule...)
	assigned = append(assigned, redistributed...)

	if prev != nil {
		assigned, res.StickReports = Stick(assigned, prev, norm)
		res.Continuity = true
	}
	classifyAll(assigned, norm.Thresholds)
	sortByReviewer(assigned)
	sortByPriority(noCandidate)

	res.Principal = assigned
	res.NoCandidate = noCandidate
	res.PreLists = BuildReviewerLists(res.PreAssigned, nil, norm)
	res.PrincipalLists = BuildReviewerLists(res.Principal, prev, norm)
	return res, nil
}

func (r Result) Counts() Counts {
	c := Counts{
		PreAssigned: len(r.PreAssigned),
		Principal:   len(r.Principal),
		NoCandidate: len(r.NoCandidate),
		ByTier:      map[models.FallbackTier]int{},
		ByCriterion: map[models.Criterion]int{},
		ByReviewer:  map[string]int{},
	}
	for _, cs := range r.Principal {
		if cs.Locked {
			c.Locked++
		}
		if cs.Carried {
			c.Carried++
		}
		if cs.FallbackTier == models.TierNone && !cs.Carried {
			c.ByRule++
		} else if cs.FallbackTier != models.TierNone {
			c.ByTier[cs.FallbackTier]++
		}
		c.ByCriterion[cs.Criterion]++
		c.ByReviewer[cs.AssignedReviewer]++
	}
	for _, cs := range r.NoCandidate {
		c.ByTier[models.TierNoCandidate]++
		c.ByCriterion[cs.Criterion]++
		c.NoCandidateID = append(c.NoCandidateID, cs.ID)
	}
	return c
}
