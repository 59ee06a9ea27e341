package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/archive"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/ingest"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/metrics"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/notify"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/report"
)

type Mode string

const (
	ModeTest       Mode = "teste"
	ModeProduction Mode = "producao"
)

// RunStore records runs. *db.Store implements it.
type RunStore interface {
	CreateRun(ctx context.Context, run models.Run) error
	FinishRun(ctx context.Context, runID, status string, summary []byte, assignments []models.RunAssignment) error
}

// RunHistory reads the Principal map of the latest successful run.
// *db.Store implements it.
type RunHistory interface {
	PreviousPrincipalMap(ctx context.Context) (models.PreviousRun, string, error)
}

// ProcessingService runs one distribution end to end: ingestion, the engine,
// rendering, persistence, archiving and delivery. Store, History, Archive,
// Notifier and Metrics are optional. History alone reads earlier runs without
// recording this one.
type ProcessingService struct {
	Store    RunStore
	History  RunHistory
	Archive  archive.Archiver
	Notifier notify.Notifier
	Managers []string
	Renderer report.Renderer
	Metrics  *metrics.Collector
	Logger   zerolog.Logger
	Now      func() time.Time
}

type Request struct {
	Numero   string
	Sources  ingest.Sources
	Config   models.RunConfig
	Previous models.PreviousRun
	// UseLastRun loads Previous from the latest successful stored run when
	// no previous table was supplied.
	UseLastRun bool
	Mode       Mode
	Delivery   notify.Delivery
	// Warnings raised by the caller while reading the inputs.
	Warnings []string
}

type Event struct {
	Type    string         `json:"type"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Time    time.Time      `json:"time"`
}

type RunSummary struct {
	RunID          string               `json:"run_id"`
	Numero         string               `json:"numero"`
	Mode           Mode                 `json:"mode"`
	Ingest         ingest.Report        `json:"ingest"`
	Counts         Counts               `json:"counts"`
	Continuity     bool                 `json:"continuity"`
	PreviousSource string               `json:"previous_source,omitempty"`
	StickReports   []models.StickReport `json:"stick_reports,omitempty"`
	Files          []string             `json:"files"`
	EmailsSent     int                  `json:"emails_sent"`
	Warnings       []string             `json:"warnings,omitempty"`
	Events         []Event              `json:"events"`
}

type Outcome struct {
	Summary RunSummary
	Result  Result
	Bundle  report.Bundle
}

func (s *ProcessingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ProcessingService) event(sum *RunSummary, typ, msg string, data map[string]any) {
	sum.Events = append(sum.Events, Event{Type: typ, Message: msg, Data: data, Time: s.now().UTC()})
}

// Distribute executes the run. Configuration problems come back as
// *ConfigError before anything is persisted.
func (s *ProcessingService) Distribute(ctx context.Context, req Request) (Outcome, error) {
	start := s.now()
	sum := RunSummary{RunID: uuid.NewString(), Numero: req.Numero, Mode: req.Mode}
	if sum.Mode == "" {
		sum.Mode = ModeTest
	}
	log := s.Logger.With().Str("run_id", sum.RunID).Str("numero", req.Numero).Logger()

	cases, rep, err := ingest.LoadCases(req.Sources)
	if err != nil {
		return Outcome{}, wrapIngestError(err)
	}
	sum.Ingest = rep
	sum.Warnings = append(sum.Warnings, req.Warnings...)
	sum.Warnings = append(sum.Warnings, rep.Warnings...)
	pre, principal := ingest.Split(cases)
	s.event(&sum, "ingest", "Cases ready for distribution", map[string]any{
		"read":          rep.Read,
		"accepted":      rep.Accepted,
		"suspended":     rep.Suspended,
		"not_kept":      rep.NotKept,
		"not_principal": rep.NotPrincipal,
		"pre_assigned":  len(pre),
		"principal":     len(principal),
	})

	prev := req.Previous
	if prev != nil {
		sum.PreviousSource = "upload"
	} else if req.UseLastRun && s.History != nil {
		p, fromRun, err := s.History.PreviousPrincipalMap(ctx)
		switch {
		case err == nil:
			prev = p
			sum.PreviousSource = "run:" + fromRun
		default:
			sum.Warnings = append(sum.Warnings, fmt.Sprintf("continuidade não aplicada: %v", err))
			log.Warn().Err(err).Msg("previous run unavailable")
		}
	}

	res, err := Run(pre, principal, prev, req.Config)
	if err != nil {
		s.Metrics.ObserveRun(models.RunFailed, time.Since(start).Seconds())
		log.Error().Err(err).Msg("run configuration rejected")
		return Outcome{}, err
	}
	sum.Warnings = append(sum.Warnings, res.Warnings...)
	sum.Counts = res.Counts()
	sum.Continuity = res.Continuity
	sum.StickReports = res.StickReports
	s.event(&sum, "assignment", "Distribution complete", map[string]any{
		"principal":    sum.Counts.Principal,
		"no_candidate": sum.Counts.NoCandidate,
		"locked":       sum.Counts.Locked,
		"by_rule":      sum.Counts.ByRule,
		"by_tier":      sum.Counts.ByTier,
	})
	if res.Continuity {
		moved := 0
		for _, r := range res.StickReports {
			moved += r.Moved
		}
		s.event(&sum, "continuity", "Previous holders restored", map[string]any{"moved": moved, "reviewers": len(res.StickReports)})
		s.Metrics.AddMoved(moved)
	}
	for _, c := range res.NoCandidate {
		log.Warn().Str("processo", c.ID).Str("reason", c.FallbackReason).Msg("case without candidate")
	}

	if s.Store != nil {
		if err := s.Store.CreateRun(ctx, models.Run{ID: sum.RunID, Numero: req.Numero, Status: models.RunRunning, StartedAt: start.UTC()}); err != nil {
			return Outcome{}, fmt.Errorf("create run: %w", err)
		}
	}

	bundle, err := s.Renderer.Render(ctx, report.Input{
		Numero:         req.Numero,
		Date:           start,
		PreAssigned:    res.PreAssigned,
		Principal:      res.Principal,
		NoCandidate:    res.NoCandidate,
		PreLists:       res.PreLists,
		PrincipalLists: res.PrincipalLists,
		StickReports:   res.StickReports,
		Continuity:     res.Continuity,
	})
	if err != nil {
		s.fail(ctx, log, &sum, start, err)
		return Outcome{}, fmt.Errorf("render workbooks: %w", err)
	}
	for _, f := range bundle.Files {
		sum.Files = append(sum.Files, f.Name)
	}
	s.event(&sum, "render", "Workbooks rendered", map[string]any{"files": len(bundle.Files)})

	s.archive(ctx, log, &sum, bundle)
	sum.EmailsSent = s.deliver(ctx, log, &sum, req, bundle)

	s.event(&sum, "db_save", "Run saved", map[string]any{"elapsed_ms": time.Since(start).Milliseconds()})
	if s.Store != nil {
		payload, _ := json.Marshal(sum)
		if err := s.Store.FinishRun(ctx, sum.RunID, models.RunSuccess, payload, Assignments(res)); err != nil {
			s.Metrics.ObserveRun(models.RunFailed, time.Since(start).Seconds())
			return Outcome{}, fmt.Errorf("finish run: %w", err)
		}
	}

	s.Metrics.ObserveRun(models.RunSuccess, time.Since(start).Seconds())
	s.Metrics.AddCases(models.CategoryPreAssigned, sum.Counts.PreAssigned)
	s.Metrics.AddCases(models.CategoryPrincipal, sum.Counts.Principal)
	s.Metrics.AddCases(models.CategoryNoCandidate, sum.Counts.NoCandidate)
	for tier, n := range sum.Counts.ByTier {
		s.Metrics.AddTier(string(tier), n)
	}

	log.Info().
		Int("pre_assigned", sum.Counts.PreAssigned).
		Int("principal", sum.Counts.Principal).
		Int("no_candidate", sum.Counts.NoCandidate).
		Int("carried", sum.Counts.Carried).
		Int("warnings", len(sum.Warnings)).
		Int("emails_sent", sum.EmailsSent).
		Dur("elapsed", time.Since(start)).
		Msg("distribution finished")

	return Outcome{Summary: sum, Result: res, Bundle: bundle}, nil
}

func (s *ProcessingService) fail(ctx context.Context, log zerolog.Logger, sum *RunSummary, start time.Time, cause error) {
	s.Metrics.ObserveRun(models.RunFailed, time.Since(start).Seconds())
	log.Error().Err(cause).Msg("distribution failed")
	if s.Store == nil {
		return
	}
	s.event(sum, "error", cause.Error(), nil)
	payload, _ := json.Marshal(sum)
	if err := s.Store.FinishRun(ctx, sum.RunID, models.RunFailed, payload, nil); err != nil {
		log.Error().Err(err).Msg("failed to finish run")
	}
}

// archive failures never fail the run.
func (s *ProcessingService) archive(ctx context.Context, log zerolog.Logger, sum *RunSummary, b report.Bundle) {
	if s.Archive == nil {
		return
	}
	stored := 0
	for _, f := range b.Files {
		if err := s.Archive.Put(ctx, archive.Key(b.Numero, sum.RunID, f.Name), bytes.NewReader(f.Data), report.ContentTypeXLSX); err != nil {
			sum.Warnings = append(sum.Warnings, fmt.Sprintf("arquivo %s não armazenado: %v", f.Name, err))
			log.Warn().Err(err).Str("file", f.Name).Msg("archive upload failed")
			continue
		}
		stored++
	}
	s.event(sum, "archive", "Bundle archived", map[string]any{"stored": stored})
}

// deliver returns the number of messages handed to the notifier.
func (s *ProcessingService) deliver(ctx context.Context, log zerolog.Logger, sum *RunSummary, req Request, b report.Bundle) int {
	var n notify.Notifier = notify.LogNotifier{Logger: log}
	if sum.Mode == ModeProduction {
		if s.Notifier == nil {
			sum.Warnings = append(sum.Warnings, "credenciais SMTP ausentes: e-mails não enviados")
			log.Warn().Msg("smtp not configured, skipping delivery")
			return 0
		}
		n = s.Notifier
	}

	delivery := req.Delivery
	if delivery == "" {
		delivery = notify.DeliveryManagers
	}
	msgs, err := notify.Plan(b, s.Managers, ingest.Emails(req.Config.Reviewers), delivery)
	if err != nil {
		sum.Warnings = append(sum.Warnings, fmt.Sprintf("e-mails não preparados: %v", err))
		return 0
	}
	sent := 0
	for _, m := range msgs {
		if err := n.Send(ctx, m); err != nil {
			sum.Warnings = append(sum.Warnings, fmt.Sprintf("falha ao enviar e-mail para %v: %v", m.To, err))
			log.Warn().Err(err).Strs("to", m.To).Msg("e-mail delivery failed")
			continue
		}
		sent++
	}
	s.event(sum, "delivery", "E-mails dispatched", map[string]any{"planned": len(msgs), "sent": sent, "mode": string(sum.Mode)})
	return sent
}

// Assignments flattens a result into stored rows.
func Assignments(res Result) []models.RunAssignment {
	var out []models.RunAssignment
	add := func(category string, cases []models.Case) {
		for _, c := range cases {
			out = append(out, models.RunAssignment{
				Category:       category,
				CaseID:         c.ID,
				Reviewer:       c.AssignedReviewer,
				NatureGroup:    c.NatureGroup,
				OriginOffice:   c.OriginOffice,
				DaysInOffice:   c.DaysInOffice,
				AgeInSystem:    c.AgeInSystem,
				Criterion:      c.Criterion,
				Locked:         c.Locked,
				FallbackTier:   c.FallbackTier,
				FallbackReason: c.FallbackReason,
			})
		}
	}
	add(models.CategoryPreAssigned, res.PreAssigned)
	add(models.CategoryPrincipal, res.Principal)
	add(models.CategoryNoCandidate, res.NoCandidate)
	return out
}

func wrapIngestError(err error) error {
	if errors.Is(err, ErrMissingColumns) {
		return NewConfigError(err, "")
	}
	return err
}
