package edi

import (
	"context"

	"github.com/shaiso/discharge/internal/pipeline"
)

// Имена шагов отправки.
const (
	StepIsPatientDataSent = "is_patient_data_sent"
	StepGoToSendJournal   = "go_to_send_journal"
	StepNextPatient       = "click_next_patient"
	StepLookupContractor  = "lookup_contractor"
	StepChooseReceiver    = "choose_receiver"
	StepNextReceiver      = "click_next_receiver"
	StepAddContent        = "add_content"
	StepNextContent       = "click_next_content"
	StepUploadFiles       = "upload_files"
	StepNextUpload        = "click_next_upload"
	StepNextPriority      = "click_next_priority"
	StepSendMessage       = "send_message"

	StepFetchReceipt  = "fetch_receipt"
	StepRenameReceipt = "rename_receipt"
)

// Steps возвращает основные и завершающие шаги отправки журнала.
//
// Первый основной шаг проверяет, не отправлялось ли сообщение раньше.
// Если отправлялось, остальные основные шаги пропускаются, а квитанция
// всё равно скачивается.
func (p *Portal) Steps() (main, tail []pipeline.Step) {
	next := func(name string) pipeline.Step {
		return pipeline.Action(name, func(ctx context.Context, _ *pipeline.Context) error {
			return p.ClickNext(ctx)
		})
	}

	main = []pipeline.Step{
		pipeline.Gate(StepIsPatientDataSent, func(ctx context.Context, pc *pipeline.Context) (bool, error) {
			return p.IsPatientDataSent(ctx, pc.Subject)
		}),
		pipeline.Action(StepGoToSendJournal, func(ctx context.Context, _ *pipeline.Context) error {
			return p.GoToSendJournal(ctx)
		}),
		next(StepNextPatient),
		pipeline.Action(StepLookupContractor, func(ctx context.Context, pc *pipeline.Context) error {
			return p.LookupContractor(ctx, pc.Recipient)
		}),
		pipeline.Action(StepChooseReceiver, func(ctx context.Context, pc *pipeline.Context) error {
			return p.ChooseReceiver(ctx, pc.Recipient)
		}),
		next(StepNextReceiver),
		pipeline.Action(StepAddContent, func(ctx context.Context, pc *pipeline.Context) error {
			body := RenderBody(pc.Template.Body, pc.Item, pc.JournalNote, p.cfg.Texts)
			return p.AddContent(ctx, pc.Subject, body)
		}),
		next(StepNextContent),
		pipeline.Action(StepUploadFiles, func(ctx context.Context, pc *pipeline.Context) error {
			return p.UploadFiles(ctx, pc.Files)
		}),
		next(StepNextUpload),
		next(StepNextPriority),
		pipeline.Action(StepSendMessage, func(ctx context.Context, _ *pipeline.Context) error {
			return p.SendMessage(ctx)
		}),
	}

	tail = []pipeline.Step{
		pipeline.Query(StepFetchReceipt, func(ctx context.Context, pc *pipeline.Context) error {
			path, err := p.FetchReceipt(ctx, pc.Subject)
			if err != nil {
				return err
			}
			pc.ReceiptPath = path
			return nil
		}),
		pipeline.Action(StepRenameReceipt, func(_ context.Context, pc *pipeline.Context) error {
			path, err := p.RenameReceipt(pc.ReceiptPath, pc.Item.PatientName)
			if err != nil {
				return err
			}
			pc.ReceiptPath = path
			return nil
		}),
	}
	return main, tail
}
