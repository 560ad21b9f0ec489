package worker

import "errors"

// Ошибки воркера.
var (
	// ErrSessionLocked — сессия приложения на этом хосте занята другим
	// процессом.
	ErrSessionLocked = errors.New("application session is locked by another process")

	// ErrInvalidItem — сообщение не содержит корректный элемент очереди.
	ErrInvalidItem = errors.New("invalid work item message")

	// ErrItemFailed — обработка элемента завершилась технической ошибкой.
	ErrItemFailed = errors.New("work item failed")

	// ErrWorkerStopped — воркер остановлен.
	ErrWorkerStopped = errors.New("worker stopped")
)
