// Package robot собирает процесс выписки из конфигурации: пулы баз
// данных, агента приложения журнала, браузер, портал EDI и Orchestrator.
//
// Сборка общая для воркера очереди и для команды run в CLI.
package robot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/discharge/internal/assets"
	"github.com/shaiso/discharge/internal/bridge"
	"github.com/shaiso/discharge/internal/browser"
	"github.com/shaiso/discharge/internal/config"
	"github.com/shaiso/discharge/internal/dashboard"
	"github.com/shaiso/discharge/internal/edi"
	"github.com/shaiso/discharge/internal/guard"
	"github.com/shaiso/discharge/internal/orchestrator"
	"github.com/shaiso/discharge/internal/repo"
	"github.com/shaiso/discharge/internal/retry"
	"github.com/shaiso/discharge/internal/telemetry"
	"github.com/shaiso/discharge/internal/waiter"
)

// Robot — собранный процесс выписки.
type Robot struct {
	Orchestrator *orchestrator.Orchestrator

	recordPool *pgxpool.Pool
	rpaPool    *pgxpool.Pool
	bridge     *bridge.Client
	browser    *browser.Accessor
}

// Build подключается к базам данных и собирает Orchestrator.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Robot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Robot{}

	var err error
	r.recordPool, err = repo.NewPool(ctx, cfg.Database.RecordDSN)
	if err != nil {
		return nil, fmt.Errorf("connect record database: %w", err)
	}
	logger.Info("record database connected")

	r.rpaPool = r.recordPool
	if cfg.Database.RPADSN != "" {
		r.rpaPool, err = repo.NewPool(ctx, cfg.Database.RPADSN)
		if err != nil {
			r.recordPool.Close()
			return nil, fmt.Errorf("connect rpa database: %w", err)
		}
		logger.Info("rpa database connected")
	}

	policy := RetryPolicy(cfg, logger)

	r.bridge = bridge.New(bridge.Config{
		URL:         cfg.Bridge.URL,
		CallTimeout: cfg.Bridge.CallTimeout,
		Logger:      logger,
	})

	r.browser = browser.New(browser.Config{
		RemoteURL:    cfg.Portal.CDPURL,
		TabURL:       cfg.Portal.TabURL,
		DownloadsDir: cfg.Paths.DownloadsDir,
		Logger:       logger,
	})

	w := waiter.New(waiter.Config{
		Accessor:     r.browser,
		Logger:       logger,
		PollInterval: cfg.Timeouts.PollInterval,
		Timeout:      cfg.Timeouts.DefaultWait,
	})

	portal := edi.New(edi.Config{
		Waiter:           w,
		SentMessagesURL:  cfg.Portal.SentMessagesURL,
		CreateJournalURL: cfg.Portal.CreateJournalURL,
		DownloadsDir:     cfg.Paths.DownloadsDir,
		Texts: edi.Texts{
			Continuation:            cfg.Texts.JournalContinuation,
			ContinuationReplacement: cfg.Texts.JournalContinuationReplacement,
		},
		SentWindow:     cfg.Idempotency.Window,
		UploadTimeout:  cfg.Timeouts.Upload,
		ReceiptTimeout: cfg.Timeouts.Receipt,
		Logger:         logger,
	})

	documents := repo.NewDocumentRepo(r.recordPool)

	var reporter orchestrator.Reporter
	if cfg.Dashboard.URL != "" {
		reporter = dashboard.New(dashboard.Config{
			BaseURL:     cfg.Dashboard.URL,
			APIKey:      cfg.Dashboard.APIKey,
			ProcessName: cfg.Dashboard.ProcessName,
			Retry:       policy,
			Logger:      logger,
		})
	} else {
		logger.Warn("dashboard url not set, step status will not be reported")
	}

	r.Orchestrator = orchestrator.New(orchestrator.Config{
		App:       bridge.NewApp(r.bridge),
		Clinics:   repo.NewClinicRepo(r.recordPool),
		Journal:   repo.NewJournalNoteRepo(r.recordPool),
		Documents: documents,
		Constants: repo.NewRPARepo(r.rpaPool),
		Portal:    portal,
		Browser:   r.browser,
		Stager: assets.NewStager(assets.StagerConfig{
			Documents:     documents,
			TmpDir:        cfg.Paths.TmpDir,
			DischargeType: cfg.Texts.DischargeDocumentType,
			Retry:         policy,
			Logger:        logger,
		}),
		Images: repo.NewImageRepo(r.recordPool),
		Workspace: assets.Workspace{
			TmpDir:       cfg.Paths.TmpDir,
			DownloadsDir: cfg.Paths.DownloadsDir,
			Logger:       logger,
		},
		Guard: guard.New(guard.Config{
			Retry:  policy,
			Window: cfg.Idempotency.Window,
			Logger: logger,
		}),
		Reporter: reporter,
		Retry:    policy,
		Texts: orchestrator.Texts{
			JournalContinuation: cfg.Texts.JournalContinuation,
			AdminNote:           cfg.Texts.AdminNote,
			AdminNoteLookup:     cfg.Texts.AdminNoteLookup,
			PhoneNotSet:         cfg.Texts.PhoneNotSet,
		},
		StepName:        cfg.Dashboard.StepName,
		PortalOpenDelay: cfg.Portal.OpenDelay,
		Logger:          logger,
		Tracer:          telemetry.Tracer(),
	})

	return r, nil
}

// RetryPolicy возвращает политику повторов из конфигурации.
func RetryPolicy(cfg *config.Config, logger *slog.Logger) retry.Policy {
	return retry.Policy{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
		Logger:        logger,
	}
}

// Close отключается от браузера и агента и закрывает пулы.
func (r *Robot) Close() error {
	r.browser.Detach()
	if r.rpaPool != r.recordPool {
		r.rpaPool.Close()
	}
	r.recordPool.Close()
	if err := r.bridge.Close(); err != nil {
		return fmt.Errorf("close bridge: %w", err)
	}
	return nil
}
