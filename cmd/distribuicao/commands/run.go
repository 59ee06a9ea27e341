package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/app"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/config"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/db"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/ingest"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/notify"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/report"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/service"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/tabular"
)

type runOptions struct {
	numero       string
	cases        string
	roster       string
	kept         string
	observations string
	previous     string
	settings     string
	outDir       string
	mode         string
	delivery     string
	useLastRun   bool
	persist      bool
	verbose      bool
}

func NewRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a distribution from local files",
		Long: `Read the case tables and the availability roster from disk, distribute the
cases and write every workbook to the output directory.

With --persist the run is recorded in DATABASE_URL. --use-last-run reads the
latest successful run from the same database and records nothing unless
--persist is also given. In producao mode the workbooks are e-mailed when SMTP
credentials are configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDistribution(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.numero, "numero", "", "Run number used in file names")
	f.StringVar(&opts.cases, "processos", "", "processos table (csv or xlsx)")
	f.StringVar(&opts.roster, "disponibilidade", "", "availability roster (csv or xlsx)")
	f.StringVar(&opts.kept, "manter", "", "processosmanter table")
	f.StringVar(&opts.observations, "observacoes", "", "observacoes table")
	f.StringVar(&opts.previous, "anterior", "", "previous Principal table")
	f.StringVar(&opts.settings, "config", "", "run settings file (defaults to RUN_CONFIG_PATH)")
	f.StringVar(&opts.outDir, "out", ".", "Output directory")
	f.StringVar(&opts.mode, "modo", string(service.ModeTest), "teste or producao")
	f.StringVar(&opts.delivery, "envio", string(notify.DeliveryManagers), "gestores or todos")
	f.BoolVar(&opts.useLastRun, "use-last-run", false, "Continue from the latest stored run")
	f.BoolVar(&opts.persist, "persist", false, "Record the run in DATABASE_URL")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log every pipeline step")
	_ = cmd.MarkFlagRequired("numero")
	_ = cmd.MarkFlagRequired("processos")
	_ = cmd.MarkFlagRequired("disponibilidade")
	return cmd
}

func runDistribution(cmd *cobra.Command, opts runOptions) error {
	_ = godotenv.Load()

	switch service.Mode(opts.mode) {
	case service.ModeTest, service.ModeProduction:
	default:
		return fmt.Errorf("invalid --modo %q", opts.mode)
	}
	switch notify.Delivery(opts.delivery) {
	case notify.DeliveryManagers, notify.DeliveryAll:
	default:
		return fmt.Errorf("invalid --envio %q", opts.delivery)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	level := zerolog.WarnLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level).With().Timestamp().Logger()

	settingsPath := opts.settings
	if settingsPath == "" {
		settingsPath = cfg.RunConfigPath
	}
	settings, err := config.LoadRunSettings(settingsPath)
	if err != nil {
		return err
	}

	cases, err := readTable(opts.cases)
	if err != nil {
		return err
	}
	rosterTable, err := readTable(opts.roster)
	if err != nil {
		return err
	}
	kept, err := readTable(opts.kept)
	if err != nil {
		return err
	}
	observations, err := readTable(opts.observations)
	if err != nil {
		return err
	}
	roster, err := ingest.ParseRoster(*rosterTable)
	if err != nil {
		return err
	}

	var warnings []string
	var prev map[string]string
	if opts.previous != "" {
		t, err := readTable(opts.previous)
		if err == nil {
			prev, err = ingest.ParsePrevious(*t)
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("continuidade não aplicada: %v", err))
			prev = nil
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var store *db.Store
	if opts.persist || opts.useLastRun {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("--persist and --use-last-run need DATABASE_URL")
		}
		store, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer store.Close()
	}

	svc, err := app.NewService(ctx, cfg, store, nil, logger)
	if err != nil {
		return err
	}
	readOnlyHistory(svc, opts.persist)
	out, err := svc.Distribute(ctx, service.Request{
		Numero: opts.numero,
		Sources: ingest.Sources{
			Cases:        *cases,
			Kept:         kept,
			Observations: observations,
		},
		Config:     settings.Build(roster),
		Previous:   prev,
		UseLastRun: opts.useLastRun,
		Mode:       service.Mode(opts.mode),
		Delivery:   notify.Delivery(opts.delivery),
		Warnings:   warnings,
	})
	if err != nil {
		return err
	}

	written, err := writeBundle(opts.outDir, out.Bundle)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(out.Summary, written))
	return nil
}

// readOnlyHistory drops the run store unless the run is to be persisted, so
// --use-last-run alone only reads earlier runs.
func readOnlyHistory(svc *service.ProcessingService, persist bool) {
	if !persist {
		svc.Store = nil
	}
}

// readTable returns nil for an empty path.
func readTable(path string) (*tabular.Table, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	t, err := tabular.Read(path, f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &t, nil
}

// writeBundle stores the general tables, the diagnostics and the zip of
// individual files. Individual workbooks only travel inside the zip.
func writeBundle(dir string, b report.Bundle) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	var files []report.File
	for _, f := range b.Files {
		if f.Reviewer == "" {
			files = append(files, f)
		}
	}
	z, err := b.IndividualsZip()
	if err != nil {
		return nil, err
	}
	files = append(files, z)

	var written []string
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
