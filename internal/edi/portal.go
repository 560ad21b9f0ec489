package edi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/ui"
	"github.com/shaiso/discharge/internal/waiter"
)

// Значения по умолчанию.
const (
	DefaultSentMessagesURL  = "https://ediportalen.dk/Messages/Sent"
	DefaultCreateJournalURL = "https://ediportalen.dk/Journal/Create"

	DefaultSentWindow     = 30 * 24 * time.Hour
	DefaultSettleDelay    = 2 * time.Second
	DefaultUploadTimeout  = 180 * time.Second
	DefaultReceiptTimeout = 60 * time.Second
	DefaultReceiptPoll    = time.Second
)

// ErrReceiptNotFound — в таблице отправленных нет сообщения с такой темой.
var ErrReceiptNotFound = errors.New("sent message not found")

// Config — конфигурация Portal.
type Config struct {
	// Waiter — ожидание элементов портала. Обязательное поле.
	Waiter *waiter.Waiter

	// SentMessagesURL — страница отправленных сообщений.
	SentMessagesURL string

	// CreateJournalURL — страница нового сообщения с журналом.
	CreateJournalURL string

	// DownloadsDir — папка, куда браузер сохраняет квитанции.
	DownloadsDir string

	// Texts — префиксы записи продолжения журнала.
	Texts Texts

	// SentWindow — насколько далеко в прошлое искать отправленные
	// сообщения. По умолчанию 30 дней.
	SentWindow time.Duration

	// SettleDelay — пауза после перехода на другую страницу мастера.
	// 0 — без паузы.
	SettleDelay time.Duration

	// UploadTimeout — сколько ждать окончания обработки загруженных файлов.
	UploadTimeout time.Duration

	// ReceiptTimeout — сколько ждать скачивания квитанции.
	ReceiptTimeout time.Duration

	// ReceiptPoll — интервал проверки папки загрузок.
	ReceiptPoll time.Duration

	Logger *slog.Logger

	// Now — источник времени. nil — time.Now.
	Now func() time.Time
}

// Portal выполняет действия в портале EDI поверх ui.Accessor.
type Portal struct {
	waiter   *waiter.Waiter
	accessor ui.Accessor
	cfg      Config
	logger   *slog.Logger
}

// New создаёт Portal.
func New(cfg Config) *Portal {
	if cfg.SentMessagesURL == "" {
		cfg.SentMessagesURL = DefaultSentMessagesURL
	}
	if cfg.CreateJournalURL == "" {
		cfg.CreateJournalURL = DefaultCreateJournalURL
	}
	if cfg.SentWindow <= 0 {
		cfg.SentWindow = DefaultSentWindow
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = DefaultReceiptTimeout
	}
	if cfg.ReceiptPoll <= 0 {
		cfg.ReceiptPoll = DefaultReceiptPoll
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Portal{
		waiter:   cfg.Waiter,
		accessor: cfg.Waiter.Accessor(),
		cfg:      cfg,
		logger:   logger.With("component", "edi_portal"),
	}
}

// ContractorCheck — результат поиска получателя в портале.
type ContractorCheck struct {
	// Rows — число строк в таблице получателей.
	Rows int

	// PhoneMatch — есть строка с телефоном получателя.
	PhoneMatch bool
}

// CheckContractor ищет получателя в открытом портале, не отправляя сообщение.
func (p *Portal) CheckContractor(ctx context.Context, r domain.Recipient) (ContractorCheck, error) {
	if err := p.ClickNext(ctx); err != nil {
		return ContractorCheck{}, err
	}
	if err := p.LookupContractor(ctx, r); err != nil {
		return ContractorCheck{}, err
	}

	rows, err := p.recipients(ctx)
	if err != nil {
		return ContractorCheck{}, err
	}
	check := ContractorCheck{Rows: len(rows), PhoneMatch: phoneRow(rows, r.Phone) >= 0}

	p.logger.Info("contractor lookup finished",
		"contractor_id", r.ContractorID,
		"rows", check.Rows,
		"phone_match", check.PhoneMatch,
	)
	return check, nil
}

// IsPatientDataSent проверяет, отправлялось ли сообщение с такой темой
// за последние SentWindow.
//
// Если таблица отправленных не появилась вовремя, считается, что
// сообщение не отправлялось.
func (p *Portal) IsPatientDataSent(ctx context.Context, subject string) (bool, error) {
	if err := p.navigate(ctx, p.cfg.SentMessagesURL); err != nil {
		return false, err
	}

	table, err := p.waiter.AwaitPresence(ctx, sentTable)
	if err != nil {
		if domain.IsSyncTimeout(err) {
			p.logger.Warn("sent messages table not loaded, assuming not sent")
			return false, nil
		}
		return false, err
	}

	rows, err := p.accessor.Table(ctx, table)
	if err != nil {
		return false, domain.NewTechnicalError("read sent messages", err)
	}

	since := p.cfg.Now().In(domain.Copenhagen).Add(-p.cfg.SentWindow)
	for _, row := range rows {
		if len(row) <= sentMessageCol {
			continue
		}
		sentAt, ok := parseSentDate(row[sentDateCol])
		if !ok {
			continue
		}
		if strings.Contains(row[sentMessageCol], subject) && sentAt.After(since) {
			p.logger.Info("message already sent", "sent_at", sentAt)
			return true, nil
		}
	}
	return false, nil
}

// GoToSendJournal открывает страницу нового сообщения с журналом.
func (p *Portal) GoToSendJournal(ctx context.Context) error {
	return p.navigate(ctx, p.cfg.CreateJournalURL)
}

// ClickNext нажимает «Næste» на текущей странице мастера.
func (p *Portal) ClickNext(ctx context.Context) error {
	btn, err := p.waiter.AwaitPresence(ctx, nextButton)
	if err != nil {
		return err
	}
	if err := p.accessor.Click(ctx, btn); err != nil {
		return domain.NewTechnicalError("click next", err)
	}
	return p.settle(ctx)
}

// LookupContractor ищет получателя по договору или телефону.
func (p *Portal) LookupContractor(ctx context.Context, r domain.Recipient) error {
	box, err := p.waiter.AwaitPresence(ctx, searchBox)
	if err != nil {
		return err
	}
	if err := p.accessor.SetValue(ctx, box, r.SearchTerm()); err != nil {
		return domain.NewTechnicalError("enter search term", err)
	}
	if err := p.accessor.SendKeys(ctx, box, ui.KeyEnter); err != nil {
		return domain.NewTechnicalError("submit search", err)
	}
	return p.settle(ctx)
}

// ChooseReceiver выбирает строку получателя с нужным телефоном.
func (p *Portal) ChooseReceiver(ctx context.Context, r domain.Recipient) error {
	table, err := p.waiter.AwaitPresence(ctx, recipientsTable)
	if err != nil {
		return err
	}
	rows, err := p.accessor.Table(ctx, table)
	if err != nil {
		return domain.NewTechnicalError("read recipients", err)
	}

	row := phoneRow(dataRows(rows), r.Phone)
	if row < 0 {
		return domain.NewTechnicalError("choose receiver",
			fmt.Errorf("no recipient with phone %s", r.Phone))
	}
	if err := p.accessor.ClickCell(ctx, table, row, recipientPickCol); err != nil {
		return domain.NewTechnicalError("click recipient", err)
	}
	return nil
}

// AddContent заполняет тему и текст сообщения.
func (p *Portal) AddContent(ctx context.Context, subject, body string) error {
	form, err := p.waiter.AwaitPresence(ctx, contentForm)
	if err != nil {
		return err
	}
	if err := p.accessor.ScrollIntoView(ctx, form); err != nil {
		return domain.NewTechnicalError("scroll to content", err)
	}

	for _, f := range []struct {
		target waiter.Target
		value  string
	}{
		{subjectField, subject},
		{bodyField, body},
	} {
		el, err := p.waiter.AwaitPresence(ctx, f.target)
		if err != nil {
			return err
		}
		if err := p.accessor.SetValue(ctx, el, f.value); err != nil {
			return domain.NewTechnicalError("set "+f.target.Name, err)
		}
	}
	return nil
}

// UploadFiles загружает файлы и ждёт, пока портал их обработает.
func (p *Portal) UploadFiles(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return domain.NewTechnicalError("upload files", errors.New("no files to upload"))
	}

	input, err := p.waiter.AwaitPresence(ctx, uploadInput)
	if err != nil {
		return err
	}
	if err := p.accessor.SetFiles(ctx, input, files); err != nil {
		return domain.NewTechnicalError("select files", err)
	}
	p.logger.Info("files selected", "count", len(files))

	return p.waiter.AwaitAbsence(ctx, uploadInProgress.Within(p.cfg.UploadTimeout))
}

// SendMessage нажимает «Send».
func (p *Portal) SendMessage(ctx context.Context) error {
	btn, err := p.waiter.AwaitPresence(ctx, submitButton)
	if err != nil {
		return err
	}
	if err := p.accessor.Click(ctx, btn); err != nil {
		return domain.NewTechnicalError("click send", err)
	}
	p.logger.Info("message sent")
	return p.settle(ctx)
}

// FetchReceipt сохраняет квитанцию о последнем сообщении с темой subject
// как PDF и возвращает путь к скачанному файлу.
func (p *Portal) FetchReceipt(ctx context.Context, subject string) (string, error) {
	if err := p.navigate(ctx, p.cfg.SentMessagesURL); err != nil {
		return "", err
	}
	table, err := p.waiter.AwaitPresence(ctx, sentTable)
	if err != nil {
		return "", err
	}
	rows, err := p.accessor.Table(ctx, table)
	if err != nil {
		return "", domain.NewTechnicalError("read sent messages", err)
	}

	row := latestRow(rows, subject)
	if row < 0 {
		return "", domain.NewTechnicalError("fetch receipt", ErrReceiptNotFound)
	}
	if err := p.accessor.ClickCell(ctx, table, row, sentMenuCol); err != nil {
		return "", domain.NewTechnicalError("open row menu", err)
	}

	for _, target := range []waiter.Target{rowMenu, saveMenuItem, saveAsPDF} {
		el, err := p.waiter.AwaitPresence(ctx, target)
		if err != nil {
			return "", err
		}
		if target.Name == rowMenu.Name {
			continue
		}
		if err := p.accessor.Click(ctx, el); err != nil {
			return "", domain.NewTechnicalError("click "+target.Name, err)
		}
	}

	return p.awaitDownload(ctx)
}

// RenameReceipt переименовывает квитанцию в «EDI Portal - <имя>.pdf».
func (p *Portal) RenameReceipt(path, patientName string) (string, error) {
	if path == "" {
		return "", domain.NewTechnicalError("rename receipt", ErrReceiptNotFound)
	}
	target := filepath.Join(filepath.Dir(path), ReceiptFilename(patientName))
	if err := os.Rename(path, target); err != nil {
		return "", domain.NewTechnicalError("rename receipt", err)
	}
	p.logger.Info("receipt renamed", "path", target)
	return target, nil
}

// ReceiptFilename возвращает имя файла квитанции для пациента.
func ReceiptFilename(patientName string) string {
	return ReceiptPrefix + patientName + ".pdf"
}

// ReceiptPrefix — начало имени файла квитанции.
const ReceiptPrefix = "EDI Portal - "

func (p *Portal) awaitDownload(ctx context.Context) (string, error) {
	var found string
	err := p.waiter.Poll(ctx, "receipt download", p.cfg.ReceiptPoll, p.cfg.ReceiptTimeout,
		func(ctx context.Context) (bool, error) {
			matches, err := filepath.Glob(filepath.Join(p.cfg.DownloadsDir, receiptPattern))
			if err != nil {
				return false, err
			}
			if len(matches) == 0 {
				return false, nil
			}
			sort.Strings(matches)
			found = matches[len(matches)-1]
			return true, nil
		})
	if err != nil {
		return "", err
	}
	p.logger.Info("receipt downloaded", "path", found)
	return found, nil
}

func (p *Portal) recipients(ctx context.Context) ([][]string, error) {
	table, err := p.waiter.AwaitPresence(ctx, recipientsTable)
	if err != nil {
		return nil, err
	}
	rows, err := p.accessor.Table(ctx, table)
	if err != nil {
		return nil, domain.NewTechnicalError("read recipients", err)
	}
	return dataRows(rows), nil
}

func (p *Portal) navigate(ctx context.Context, url string) error {
	if err := p.accessor.Navigate(ctx, url); err != nil {
		return domain.NewTechnicalError("navigate to "+url, err)
	}
	return p.settle(ctx)
}

func (p *Portal) settle(ctx context.Context) error {
	if p.cfg.SettleDelay == 0 {
		return nil
	}
	select {
	case <-time.After(p.cfg.SettleDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dataRows убирает строку-заглушку пустой таблицы.
func dataRows(rows [][]string) [][]string {
	if len(rows) == 1 && len(rows[0]) > 0 && strings.TrimSpace(rows[0][0]) == noDataText {
		return nil
	}
	return rows
}

// phoneRow возвращает индекс строки с телефоном или -1.
func phoneRow(rows [][]string, phone string) int {
	if phone == "" {
		return -1
	}
	for i, row := range rows {
		if len(row) > recipientPhoneCol && strings.TrimSpace(row[recipientPhoneCol]) == phone {
			return i
		}
	}
	return -1
}

// latestRow возвращает индекс самой поздней строки с точной темой или -1.
func latestRow(rows [][]string, subject string) int {
	best := -1
	var bestAt time.Time
	for i, row := range rows {
		if len(row) <= sentMenuCol || strings.TrimSpace(row[sentMessageCol]) != subject {
			continue
		}
		at, ok := parseSentDate(row[sentDateCol])
		if !ok {
			continue
		}
		if best < 0 || at.After(bestAt) {
			best, bestAt = i, at
		}
	}
	return best
}

func parseSentDate(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(sentDateLayout, strings.TrimSpace(s), domain.Copenhagen)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
