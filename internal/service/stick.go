package service

import (
	"sort"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
)

// Stick moves cases back to the reviewer that held them in the previous run.
// Per reviewer at most cfg.Cap cases (DefaultCap when unset) are kept, chosen
// by priority. Locked cases never leave their exclusive owner and only-locked
// reviewers never receive a non-locked case. The returned slice has the same cases in the same order.
func Stick(cases []models.Case, prev models.PreviousRun, cfg models.RunConfig) ([]models.Case, []models.StickReport) {
	out := append([]models.Case(nil), cases...)
	if len(prev) == 0 {
		return out, nil
	}
	rs := newRoster(cfg)
	capacity := cfg.Cap
	if capacity <= 0 {
		capacity = DefaultCap
	}

	byReviewer := map[string][]int{}
	for i, c := range out {
		if c.AssignedReviewer == "" {
			continue
		}
		owner, ok := prev[c.ID]
		if !ok || owner == "" {
			continue
		}
		byReviewer[owner] = append(byReviewer[owner], i)
	}

	var reports []models.StickReport
	for _, name := range availableNames(cfg.Reviewers) {
		idx := byReviewer[name]
		if len(idx) == 0 {
			continue
		}
		report := models.StickReport{Reviewer: name, Candidates: len(idx)}

		survivors := make([]int, 0, len(idx))
		for _, i := range idx {
			c := out[i]
			if c.Locked && c.AssignedReviewer != name {
				report.BlockedExclusive++
				continue
			}
			if !c.Locked && !rs.accepts(name, c) {
				report.BlockedWhitelist++
				continue
			}
			survivors = append(survivors, i)
		}
		sort.SliceStable(survivors, func(a, b int) bool {
			return priorityLess(out[survivors[a]], out[survivors[b]])
		})
		if len(survivors) > capacity {
			survivors = survivors[:capacity]
		}

		for _, i := range survivors {
			if rs.onlyLocked(name) && !out[i].Locked {
				report.BlockedOnlyLocked++
				continue
			}
			report.Stuck++
			if out[i].AssignedReviewer == name {
				continue
			}
			out[i].AssignedReviewer = name
			out[i].Carried = true
			out[i].FallbackTier = models.TierNone
			out[i].FallbackReason = ""
			report.Moved++
		}
		reports = append(reports, report)
	}
	return out, reports
}
