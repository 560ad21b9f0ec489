// Package session описывает действия в приложении журнала пациентов,
// которые выполняет процесс выписки.
//
// Приложение работает на рабочей станции Windows. Процесс управляет им
// через агента (см. пакет bridge); интерфейс App позволяет подменять
// агента в тестах.
package session

import "context"

// Процессы, которые закрываются перед началом обработки.
const (
	ProcessEdge    = "msedge.exe"
	ProcessAcrobat = "AcroRd32.exe"
)

// App — приложение журнала пациентов.
//
// Вызовы не потокобезопасны по смыслу: в один момент времени с
// приложением работает одна обработка.
type App interface {
	// OpenPatient открывает карту пациента по CPR.
	OpenPatient(ctx context.Context, cpr string) error

	// CreateDocument прикладывает файл к карте пациента.
	CreateDocument(ctx context.Context, path string) error

	// CreateJournalNote добавляет запись в журнал.
	// complete — запись сразу помечается завершённой.
	CreateJournalNote(ctx context.Context, text string, complete bool) error

	// CreateDigitalPrintedJournal создаёт документ «Printet journal».
	CreateDigitalPrintedJournal(ctx context.Context) error

	// OpenEDIPortal открывает портал EDI из карты пациента.
	OpenEDIPortal(ctx context.Context) error

	// CloseEDIPortal закрывает окно портала.
	CloseEDIPortal(ctx context.Context) error

	// ClosePatientWindow закрывает карту пациента.
	ClosePatientWindow(ctx context.Context) error

	// Close закрывает приложение.
	Close(ctx context.Context) error

	// HardClose принудительно завершает процесс по имени.
	HardClose(ctx context.Context, process string) error
}
