package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/edi"
	"github.com/shaiso/discharge/internal/guard"
	"github.com/shaiso/discharge/internal/pipeline"
	"github.com/shaiso/discharge/internal/repo"
	"github.com/shaiso/discharge/internal/retry"
)

// prepareAssets готовит файлы для портала: архив снимков, документ
// «Printet journal» и копии документов о выписке.
func (o *Orchestrator) prepareAssets(ctx context.Context, state *ItemState, logger *slog.Logger) error {
	item := state.Item

	if o.cfg.Images != nil {
		logger.Info("fetching images")
		archive, err := o.cfg.Stager.ArchiveImages(ctx, o.cfg.Images, item.CPR)
		if err != nil {
			return fmt.Errorf("archive images: %w", err)
		}
		if archive != "" {
			logger.Info("image archive created", "archive", archive)
		}
	}

	outcome, err := o.cfg.Guard.EnsureOnce(ctx, guard.Check{
		Name: ArtifactMedicalRecord,
		Exists: func(ctx context.Context, since time.Time) (int, error) {
			return o.cfg.Documents.Count(ctx, repo.NewQuery().
				Where(repo.FieldCPR, repo.Eq(item.CPR)).
				Where(repo.FieldDocumentType, repo.Eq(domain.DocumentTypeMedicalRecord)).
				Where(repo.FieldDescription, repo.Like(MedicalRecordDescription)).
				Where(repo.FieldCreatedAt, repo.GTE(since)))
		},
		Create: o.cfg.App.CreateDigitalPrintedJournal,
	})
	if err != nil {
		return err
	}
	state.Artifacts[ArtifactMedicalRecord] = outcome

	logger.Info("preparing edi portal documents")
	files, err := o.cfg.Stager.StageDocuments(ctx, item)
	if err != nil {
		return err
	}
	state.Context.Files = files
	logger.Info("documents staged", "files", len(files))
	return nil
}

// runPipeline открывает портал, загружает шаблон сообщения и выполняет
// процесс в портале. Портал закрывается на любом пути выхода.
func (o *Orchestrator) runPipeline(ctx context.Context, state *ItemState, logger *slog.Logger) error {
	raw, err := retry.Value(ctx, o.cfg.Retry, "get content constant", func(ctx context.Context) (string, error) {
		return o.cfg.Constants.Constant(ctx, domain.ContentConstantName)
	})
	if err != nil && !isNotFound(err) {
		return err
	}
	tpl, err := domain.ParseContentTemplate(raw)
	if err != nil {
		return err
	}
	state.Context.SetTemplate(tpl)

	if err := o.openPortal(ctx); err != nil {
		return err
	}
	defer o.closePortal(ctx, logger)

	main, tail := o.cfg.Portal.Steps()
	exec := pipeline.NewExecutor(pipeline.Config{
		Main:   main,
		Tail:   tail,
		Logger: logger,
		Tracer: o.tracer,
	})

	res, err := exec.Run(ctx, state.Context)
	state.Pipeline = res
	if err != nil {
		return fmt.Errorf("edi portal: %w", err)
	}
	return nil
}

// finalize прикладывает квитанцию к карте пациента и создаёт
// административную запись. Каждый артефакт создаётся не больше одного
// раза за окно повторной проверки.
func (o *Orchestrator) finalize(ctx context.Context, state *ItemState, logger *slog.Logger) error {
	item := state.Item

	receipt := state.Context.ReceiptPath
	if receipt == "" {
		logger.Warn("no receipt was produced by the edi portal, skipping document filing")
	} else {
		outcome, err := o.cfg.Guard.EnsureOnce(ctx, guard.Check{
			Name: ArtifactReceipt,
			Exists: func(ctx context.Context, since time.Time) (int, error) {
				return o.cfg.Documents.Count(ctx, repo.NewQuery().
					Where(repo.FieldCPR, repo.Eq(item.CPR)).
					Where(repo.FieldOriginalFilename, repo.Contains(edi.ReceiptPrefix+item.PatientName)).
					Where(repo.FieldCreatedAt, repo.GTE(since)))
			},
			Create: func(ctx context.Context) error {
				return o.cfg.App.CreateDocument(ctx, receipt)
			},
		})
		if err != nil {
			return err
		}
		state.Artifacts[ArtifactReceipt] = outcome
	}

	outcome, err := o.cfg.Guard.EnsureOnce(ctx, guard.Check{
		Name: ArtifactAdminNote,
		Exists: func(ctx context.Context, since time.Time) (int, error) {
			notes, err := o.cfg.Journal.List(ctx, repo.NewQuery().
				Where(repo.FieldCPR, repo.Eq(item.CPR)).
				Where(repo.FieldDescription, repo.Contains(o.cfg.Texts.AdminNoteLookup)).
				Where(repo.FieldDocumentedAt, repo.GTE(since)).
				Order(repo.FieldDocumentedAt, repo.Desc))
			return len(notes), err
		},
		Create: func(ctx context.Context) error {
			return o.cfg.App.CreateJournalNote(ctx, o.cfg.Texts.AdminNote, true)
		},
	})
	if err != nil {
		return err
	}
	state.Artifacts[ArtifactAdminNote] = outcome
	return nil
}
