package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/repo"
	"github.com/shaiso/discharge/internal/retry"
)

// initializationChecks проверяет данные клиник и договор в портале.
//
// Бизнес-ошибки:
//   - частная клиника не указана (1E);
//   - у частной клиники нет телефона (1F);
//   - договор не найден в портале (1G);
//   - телефон не совпадает с порталом (1H).
func (o *Orchestrator) initializationChecks(ctx context.Context, state *ItemState, logger *slog.Logger) error {
	cpr := state.Item.CPR

	primary, err := retry.Value(ctx, o.cfg.Retry, "get primary clinic", func(ctx context.Context) (*domain.PrimaryClinic, error) {
		return o.cfg.Clinics.PrimaryClinic(ctx, cpr)
	})
	switch {
	case isNotFound(err):
		logger.Info("primary clinic not found")
	case err != nil:
		return err
	default:
		state.PrimaryClinic = primary
		logger.Info("primary clinic found", "clinic", primary.ClinicName)
	}

	extern, err := retry.Value(ctx, o.cfg.Retry, "get extern clinic", func(ctx context.Context) (*domain.ExternClinic, error) {
		return o.cfg.Clinics.ExternClinic(ctx, cpr)
	})
	if isNotFound(err) {
		msg := o.exceptionMessage(ctx, CodeExternClinicNotSet, externClinicNotSetMessage, logger)
		return &domain.Error{Kind: domain.KindBusinessRule, Code: CodeExternClinicNotSet, Message: msg, Err: ErrExternClinicNotSet}
	}
	if err != nil {
		return err
	}

	logger.Info("checking if phone number is set")
	if strings.TrimSpace(extern.PhoneNumber) == "" {
		msg := o.exceptionMessage(ctx, CodePhoneNotSet, o.cfg.Texts.PhoneNotSet, logger)
		return &domain.Error{Kind: domain.KindBusinessRule, Code: CodePhoneNotSet, Message: msg, Err: ErrPhoneNotSet}
	}
	state.ExternClinic = extern

	// Получатель определяется по клинике из журнала, данные элемента
	// остаются, если договор в журнале не заполнен.
	if extern.ContractorID != "" {
		state.Context.Recipient = domain.ResolveRecipient(*extern)
	}

	note, err := o.latestAdminNote(ctx, cpr)
	if err != nil {
		return err
	}
	if note == "" {
		logger.Info("found no administrative note")
	}
	state.Context.JournalNote = note

	return o.checkContractor(ctx, state, logger)
}

// latestAdminNote возвращает текст последней записи с текстом продолжения.
func (o *Orchestrator) latestAdminNote(ctx context.Context, cpr string) (string, error) {
	q := repo.NewQuery().
		Where(repo.FieldCPR, repo.Eq(cpr)).
		Where(repo.FieldDescription, repo.Contains(o.cfg.Texts.JournalContinuation)).
		Order(repo.FieldDocumentedAt, repo.Desc).
		Take(1)

	notes, err := retry.Value(ctx, o.cfg.Retry, "get administrative note", func(ctx context.Context) ([]domain.JournalNote, error) {
		return o.cfg.Journal.List(ctx, q)
	})
	if err != nil {
		return "", err
	}
	if len(notes) == 0 {
		return "", nil
	}
	return notes[0].Description, nil
}

// checkContractor открывает портал и проверяет договор и телефон
// получателя. Портал закрывается на любом пути выхода.
func (o *Orchestrator) checkContractor(ctx context.Context, state *ItemState, logger *slog.Logger) error {
	logger.Info("checking contractor data")
	if err := o.openPortal(ctx); err != nil {
		return err
	}
	defer o.closePortal(ctx, logger)

	check, err := o.cfg.Portal.CheckContractor(ctx, state.Context.Recipient)
	if err != nil {
		return fmt.Errorf("check contractor: %w", err)
	}

	if check.Rows == 0 {
		msg := o.exceptionMessage(ctx, CodeContractorNotFound, defaultContractorNotFoundMessage, logger)
		return &domain.Error{Kind: domain.KindBusinessRule, Code: CodeContractorNotFound, Message: msg, Err: ErrContractorNotFound}
	}
	logger.Info("contractor id is set", "rows", check.Rows)

	if !check.PhoneMatch {
		msg := o.exceptionMessage(ctx, CodePhoneMismatch, defaultPhoneMismatchMessage, logger)
		return &domain.Error{Kind: domain.KindBusinessRule, Code: CodePhoneMismatch, Message: msg, Err: ErrPhoneMismatch}
	}
	logger.Info("phone number matched")
	return nil
}

// exceptionMessage возвращает текст бизнес-ошибки из таблицы сообщений
// или def, если текста нет или таблица недоступна.
func (o *Orchestrator) exceptionMessage(ctx context.Context, code, def string, logger *slog.Logger) string {
	msg, err := o.cfg.Constants.ExceptionMessage(ctx, code)
	if err != nil {
		if !isNotFound(err) {
			logger.Error("error retrieving exception message", "code", code, "error", err)
		}
		return def
	}
	if msg == "" {
		return def
	}
	return msg
}

// openPortal открывает портал из карты пациента и подключается к нему.
// Если подключиться не удалось, окно портала закрывается.
func (o *Orchestrator) openPortal(ctx context.Context) error {
	if err := o.cfg.App.OpenEDIPortal(ctx); err != nil {
		return fmt.Errorf("open edi portal: %w", err)
	}

	err := o.sleep(ctx, o.cfg.PortalOpenDelay)
	if err == nil {
		err = o.cfg.Browser.Attach(ctx)
	}
	if err != nil {
		_ = o.cfg.App.CloseEDIPortal(context.WithoutCancel(ctx))
		return fmt.Errorf("attach to edi portal: %w", err)
	}
	return nil
}

// closePortal отключается от портала и закрывает его окно.
func (o *Orchestrator) closePortal(ctx context.Context, logger *slog.Logger) {
	o.cfg.Browser.Detach()
	if err := o.cfg.App.CloseEDIPortal(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("failed to close edi portal", "error", err)
	}
}
