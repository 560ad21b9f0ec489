// Package pipeline выполняет процесс в портале как последовательность шагов.
//
// # Шаги
//
// Шаг (Step) получает общий *Context и возвращает Signal или ошибку.
// Виды шагов:
//   - Gate — условие; true означает «работа уже сделана»
//   - Action — действие во внешней системе (клик, ввод, отправка)
//   - Query — чтение данных
//
// # Исполнитель
//
// Executor делит шаги на основные (Main) и завершающие (Tail):
//
//  1. Основные шаги выполняются строго по порядку
//  2. Gate, вернувший SkipRemaining, пропускает оставшиеся основные шаги
//  3. Ошибка основного шага → FAILED, завершающие шаги не выполняются
//  4. Завершающие шаги выполняются ровно один раз, по порядку
//
// Завершающие шаги нужны для квитанции: даже если сообщение уже было
// отправлено при прошлом запуске, квитанцию нужно скачать заново.
//
// Только шаг вида Gate может пропускать шаги. SkipRemaining от других
// шагов логируется и считается Continue.
//
// Каждый шаг выполняется в спане OpenTelemetry и замеряется гистограммой
// discharge_pipeline_step_duration_seconds.
package pipeline
