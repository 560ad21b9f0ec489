package pipeline

import (
	"github.com/shaiso/discharge/internal/domain"
)

// Context — состояние одного выполнения процесса в портале.
//
// Context создаётся оркестратором для каждого WorkItem, передаётся
// всем шагам по указателю и не сохраняется. Шаги выполняются
// последовательно, поэтому блокировки не нужны.
type Context struct {
	// Item — обрабатываемый элемент.
	Item *domain.WorkItem

	// Recipient — получатель сообщения в портале.
	Recipient domain.Recipient

	// Template — шаблон сообщения, загруженный из константы.
	Template domain.ContentTemplate

	// Subject — тема сообщения (базовая тема + клиника + имя пациента).
	Subject string

	// JournalNote — текст продолжения из последней административной
	// записи в журнале. Пусто, если записи нет.
	JournalNote string

	// Files — подготовленные локальные файлы для загрузки.
	Files []string

	// ReceiptPath — путь к квитанции об отправке. Пусто, пока квитанция
	// не скачана.
	ReceiptPath string
}

// NewContext создаёт Context для элемента.
func NewContext(item *domain.WorkItem, recipient domain.Recipient) *Context {
	return &Context{
		Item:      item,
		Recipient: recipient,
	}
}

// SetTemplate сохраняет шаблон и вычисляет тему сообщения.
func (c *Context) SetTemplate(tpl domain.ContentTemplate) {
	c.Template = tpl
	c.Subject = c.Recipient.Subject(tpl.Subject, c.Item.PatientName)
}
