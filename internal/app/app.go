// Package app assembles the processing service from the environment
// configuration. The HTTP server and the CLI share it.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/archive"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/config"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/db"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/metrics"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/notify"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/report"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/service"
)

// NewService wires the optional collaborators. store and collector may be nil.
// Archiving is enabled by AZURE_STORAGE_CONNECTION_STRING and e-mail by the
// SMTP credentials; without them the run only warns.
func NewService(ctx context.Context, cfg config.Config, store *db.Store, collector *metrics.Collector, logger zerolog.Logger) (*service.ProcessingService, error) {
	svc := &service.ProcessingService{
		Managers: cfg.Managers(),
		Renderer: report.Renderer{Workers: cfg.RenderWorkers},
		Metrics:  collector,
		Logger:   logger.With().Str("component", "processing").Logger(),
	}
	if store != nil {
		svc.Store = store
		svc.History = store
	}

	if cfg.AzureConnectionString != "" {
		a, err := archive.NewAzure(ctx, cfg.AzureConnectionString, cfg.ArchiveContainer, logger)
		if err != nil {
			return nil, err
		}
		svc.Archive = a
	} else {
		logger.Info().Msg("archive disabled, bundles are not stored")
	}

	if cfg.SMTPConfigured() {
		svc.Notifier = notify.SMTPNotifier{
			Server:   cfg.SMTPServer,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Timeout:  30 * time.Second,
		}
	} else {
		logger.Info().Msg("smtp credentials missing, production runs will not send e-mail")
	}
	return svc, nil
}
