package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
)

// Migrations holds the schema, applied by cmd/migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// MapError translates driver errors into the package sentinels.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func (s *Store) CreateRun(ctx context.Context, run models.Run) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO runs (id, numero, status, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.Numero, run.Status, run.StartedAt)
	return MapError(err)
}

// FinishRun records the outcome and, on success, the assignments in one
// transaction so a SUCCESS run is never left without its rows.
func (s *Store) FinishRun(ctx context.Context, runID, status string, summary []byte, assignments []models.RunAssignment) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`,
			status, summary, runID)
		if err != nil {
			return MapError(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if len(assignments) == 0 {
			return nil
		}
		_, err = insertAssignments(ctx, tx, runID, assignments)
		return MapError(err)
	})
}

var assignmentColumns = []string{
	"run_id", "category", "processo", "informante", "grupo_natureza", "orgao_origem",
	"dias_no_orgao", "tempo_tcerj", "criterio", "locked", "fallback_tier", "fallback_motivo",
}

func insertAssignments(ctx context.Context, tx pgx.Tx, runID string, assignments []models.RunAssignment) (int64, error) {
	rows := make([][]any, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, []any{
			runID, a.Category, a.CaseID, a.Reviewer, a.NatureGroup, a.OriginOffice,
			a.DaysInOffice, a.AgeInSystem, string(a.Criterion), a.Locked, string(a.FallbackTier), a.FallbackReason,
		})
	}
	return tx.CopyFrom(ctx, pgx.Identifier{"run_assignments"}, assignmentColumns, pgx.CopyFromRows(rows))
}

// GetLatestRun returns the most recent run, optionally restricted to a status.
func (s *Store) GetLatestRun(ctx context.Context, status string) (models.Run, error) {
	query := `SELECT id::text, numero, status, started_at, finished_at, summary FROM runs`
	var args []any
	if status != "" {
		args = append(args, status)
		query += " WHERE status = $1"
	}
	query += " ORDER BY started_at DESC LIMIT 1"

	var (
		run      models.Run
		finished *time.Time
		summary  []byte
	)
	if err := s.Pool.QueryRow(ctx, query, args...).Scan(&run.ID, &run.Numero, &run.Status, &run.StartedAt, &finished, &summary); err != nil {
		return models.Run{}, MapError(err)
	}
	run.FinishedAt = finished
	run.Summary = summary
	return run, nil
}

func (s *Store) ListRunAssignments(ctx context.Context, runID, category, reviewer string) ([]models.RunAssignment, error) {
	query := `SELECT run_id::text, category, processo, informante, grupo_natureza, orgao_origem,
		dias_no_orgao, tempo_tcerj, criterio, locked, fallback_tier, fallback_motivo
		FROM run_assignments`
	args := []any{runID}
	wheres := []string{"run_id = $1"}
	if category != "" {
		args = append(args, category)
		wheres = append(wheres, fmt.Sprintf("category = $%d", len(args)))
	}
	if reviewer != "" {
		args = append(args, strings.ToUpper(strings.TrimSpace(reviewer)))
		wheres = append(wheres, fmt.Sprintf("informante = $%d", len(args)))
	}
	query += " WHERE " + strings.Join(wheres, " AND ") + " ORDER BY category, informante, processo"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RunAssignment
	for rows.Next() {
		var (
			a         models.RunAssignment
			criterion string
			tier      string
		)
		if err := rows.Scan(&a.RunID, &a.Category, &a.CaseID, &a.Reviewer, &a.NatureGroup, &a.OriginOffice,
			&a.DaysInOffice, &a.AgeInSystem, &criterion, &a.Locked, &tier, &a.FallbackReason); err != nil {
			return nil, err
		}
		a.Criterion = models.Criterion(criterion)
		a.FallbackTier = models.FallbackTier(tier)
		out = append(out, a)
	}
	return out, rows.Err()
}

// PreviousPrincipalMap rebuilds the continuity map from the latest successful
// run. ErrNotFound means there is no such run yet.
func (s *Store) PreviousPrincipalMap(ctx context.Context) (models.PreviousRun, string, error) {
	run, err := s.GetLatestRun(ctx, models.RunSuccess)
	if err != nil {
		return nil, "", err
	}
	items, err := s.ListRunAssignments(ctx, run.ID, models.CategoryPrincipal, "")
	if err != nil {
		return nil, "", err
	}
	prev := models.PreviousRun{}
	for _, a := range items {
		if a.Reviewer != "" {
			prev[a.CaseID] = a.Reviewer
		}
	}
	return prev, run.ID, nil
}
