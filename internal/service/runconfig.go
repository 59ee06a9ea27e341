package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
)

const DefaultCap = 200

// NormalizeConfig canonicalizes names, fills defaults, drops rules that target
// nobody and resolves the pools to their available members. The input is not
// modified. Warnings describe everything that was dropped.
func NormalizeConfig(cfg models.RunConfig) (models.RunConfig, []string, error) {
	var warnings []string
	out := models.RunConfig{
		Cap:             cfg.Cap,
		Thresholds:      cfg.Thresholds,
		RoundRobinScope: cfg.RoundRobinScope,
	}
	if out.Cap <= 0 {
		out.Cap = DefaultCap
	}
	if out.Thresholds == (models.Thresholds{}) {
		out.Thresholds = DefaultThresholds
	}
	if out.Thresholds.Approaching > out.Thresholds.Aged {
		return models.RunConfig{}, nil, NewConfigError(ErrInvalidRunConfig,
			fmt.Sprintf("approaching threshold %d above aged threshold %d", out.Thresholds.Approaching, out.Thresholds.Aged))
	}
	switch out.RoundRobinScope {
	case "":
		out.RoundRobinScope = models.ScopeNaturePool
	case models.ScopeNaturePool, models.ScopeNature:
	default:
		return models.RunConfig{}, nil, NewConfigError(ErrInvalidRunConfig,
			fmt.Sprintf("unknown round robin scope %q", cfg.RoundRobinScope))
	}

	seen := map[string]bool{}
	for _, r := range cfg.Reviewers {
		name := models.NormalizeName(r.Name)
		if name == "" {
			continue
		}
		if seen[name] {
			warnings = append(warnings, fmt.Sprintf("informante duplicado ignorado: %s", name))
			continue
		}
		seen[name] = true
		out.Reviewers = append(out.Reviewers, models.Reviewer{
			Name:            name,
			Email:           strings.TrimSpace(r.Email),
			Available:       r.Available,
			AcceptedNatures: normalizeSet(r.AcceptedNatures),
			AcceptedOrigins: normalizeSet(r.AcceptedOrigins),
			OnlyLocked:      r.OnlyLocked,
		})
	}
	sort.SliceStable(out.Reviewers, func(i, j int) bool {
		return out.Reviewers[i].Name < out.Reviewers[j].Name
	})

	available := availableNames(out.Reviewers)
	if len(available) == 0 {
		return models.RunConfig{}, nil, NewConfigError(ErrNoAvailableReviewers, "roster has no reviewer marked available")
	}
	isAvailable := map[string]bool{}
	for _, n := range available {
		isAvailable[n] = true
	}

	for i, r := range cfg.Rules {
		rule := models.Rule{
			Index:        i,
			Reviewer:     models.NormalizeName(r.Reviewer),
			NatureGroup:  normalizeRuleField(r.NatureGroup),
			OriginOffice: normalizeRuleField(r.OriginOffice),
			Exclusive:    r.Exclusive,
		}
		if rule.Reviewer == "" {
			continue
		}
		if !isAvailable[rule.Reviewer] {
			warnings = append(warnings, fmt.Sprintf("regra %d ignorada: informante %s indisponível", i+1, rule.Reviewer))
			continue
		}
		out.Rules = append(out.Rules, rule)
	}

	out.Pools, warnings = resolvePools(cfg.Pools, available, isAvailable, warnings)
	if len(out.Pools.General) == 0 {
		return models.RunConfig{}, nil, NewConfigError(ErrEmptyGeneralPool, "no general pool member is available")
	}
	return out, warnings, nil
}

func resolvePools(p models.PoolTopology, available []string, isAvailable map[string]bool, warnings []string) (models.PoolTopology, []string) {
	mode := p.Mode
	if mode == "" {
		mode = models.PoolModeUnified
		if len(p.Special) > 0 || len(p.SpecialOrigins) > 0 {
			mode = models.PoolModeTwoPool
		}
	}
	out := models.PoolTopology{Mode: mode}

	filter := func(label string, names []string) []string {
		var kept []string
		dup := map[string]bool{}
		for _, n := range names {
			n = models.NormalizeName(n)
			if n == "" || dup[n] {
				continue
			}
			dup[n] = true
			if !isAvailable[n] {
				warnings = append(warnings, fmt.Sprintf("grupo %s: informante %s indisponível", label, n))
				continue
			}
			kept = append(kept, n)
		}
		return kept
	}

	if len(p.General) == 0 {
		out.General = append([]string(nil), available...)
	} else {
		out.General = filter("geral", p.General)
	}
	if mode == models.PoolModeTwoPool {
		out.Special = filter("especial", p.Special)
		out.SpecialOrigins = normalizeSet(p.SpecialOrigins)
	}
	return out, warnings
}

func normalizeRuleField(v string) string {
	v = models.NormalizeCategory(v)
	switch v {
	case "", "*", models.Wildcard, "(QUALQUER)":
		return models.Wildcard
	}
	return v
}

func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = models.NormalizeCategory(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func availableNames(reviewers []models.Reviewer) []string {
	var out []string
	for _, r := range reviewers {
		if r.Available {
			out = append(out, r.Name)
		}
	}
	sort.Strings(out)
	return out
}
