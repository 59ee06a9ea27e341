package service

import (
	"sort"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
)

// BuildReviewerLists assembles one capped list per reviewer holding at least
// one case. Non-locked cases outside the reviewer's whitelist are flagged, not
// dropped. prev may be nil.
func BuildReviewerLists(cases []models.Case, prev models.PreviousRun, cfg models.RunConfig) []models.ReviewerList {
	rs := newRoster(cfg)
	grouped := map[string][]models.Case{}
	for _, c := range cases {
		if c.AssignedReviewer == "" {
			continue
		}
		grouped[c.AssignedReviewer] = append(grouped[c.AssignedReviewer], c)
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	capacity := cfg.Cap
	if capacity <= 0 {
		capacity = DefaultCap
	}

	lists := make([]models.ReviewerList, 0, len(names))
	for _, name := range names {
		items := grouped[name]
		for i := range items {
			items[i].OutOfWhitelist = !items[i].Locked && !rs.accepts(name, items[i])
			items[i].Preferred = prev != nil && prev[items[i].ID] == name
		}
		sort.SliceStable(items, func(a, b int) bool {
			if items[a].Preferred != items[b].Preferred {
				return items[a].Preferred
			}
			return priorityLess(items[a], items[b])
		})
		total := len(items)
		if len(items) > capacity {
			items = items[:capacity]
		}
		lists = append(lists, models.ReviewerList{Reviewer: name, Cases: items, Total: total})
	}
	return lists
}
