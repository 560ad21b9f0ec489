// Package retry повторяет операции, упавшие на временных ошибках.
//
// Retry выполняется в процессе: временная ошибка (разрыв соединения
// с БД, таймаут сервера) повторяется с экспоненциальной задержкой
//
//	delay = BaseDelay * BackoffFactor^(attempt-1)
//
// Любая другая ошибка возвращается сразу. Когда попытки исчерпаны,
// возвращается техническая ошибка с ErrExhausted в цепочке, чтобы
// оркестратор не путал её с временной.
//
//	docs, err := retry.Value(ctx, policy, "list documents", func(ctx context.Context) ([]domain.Document, error) {
//	    return documents.List(ctx, query)
//	})
package retry
