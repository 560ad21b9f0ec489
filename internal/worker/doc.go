// Package worker потребляет элементы очереди на выписку и передаёт их
// оркестратору.
//
// # Обзор
//
// Worker читает очередь discharge.items по одному сообщению (prefetch 1)
// и обрабатывает элементы последовательно. Приложение журнала пациентов
// и окно портала принадлежат рабочей станции, поэтому на хосте работает
// один воркер. Это обеспечивает файловая блокировка (gofrs/flock),
// которая захватывается в Start и освобождается в Stop.
//
//	w := worker.New(worker.Config{
//	    Processor: orch,
//	    Publisher: publisher,
//	    Conn:      mqConn,
//	    LockPath:  cfg.Paths.LockFile,
//	    Logger:    logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Подтверждение сообщений
//
//   - успех — ack
//   - бизнес-ошибка — ack; элемент перезапускается с дашборда
//   - временная ошибка и прерванная обработка — nack с возвратом в очередь
//   - техническая ошибка и некорректное сообщение — nack в discharge.dlq.items
//
// После каждого элемента публикуется событие item.completed с итогом,
// кодом бизнес-ошибки и продолжительностью.
//
// Stop сразу перестаёт принимать сообщения, но текущий элемент
// дорабатывается до конца, не дольше DrainTimeout.
//
// RunOnce обрабатывает один элемент без очереди, под той же блокировкой.
package worker
