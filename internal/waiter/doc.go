// Package waiter синхронизирует робота с внешним интерфейсом.
//
// Внешние приложения не сообщают, когда элемент готов, поэтому робот
// опрашивает интерфейс: каждые PollInterval проверяются кандидаты цели
// (ui.Selector) по порядку, пока один не найдётся или не истечёт Timeout.
//
// Бесконечного ожидания нет: нулевой таймаут заменяется на 30 секунд,
// нулевой интервал на 500 миллисекунд. Отмена контекста прерывает
// ожидание с ошибкой контекста.
//
// Ошибка запроса к интерфейсу во время одного опроса логируется и
// считается как «элемент не найден» на этом опросе.
//
//	w := waiter.New(waiter.Config{Accessor: acc, Logger: logger})
//
//	btn, err := w.AwaitPresence(ctx, waiter.NewTarget("next button",
//	    ui.Name("Næste"),
//	    ui.ID("patientInformationNextButton"),
//	).Within(5*time.Second))
//
// По таймауту возвращается *domain.Error класса KindSyncTimeout.
package waiter
