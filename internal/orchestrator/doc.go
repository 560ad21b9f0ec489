// Package orchestrator обрабатывает один элемент очереди: выписку
// пациента в частную клинику.
//
// Этапы обработки:
//   - Validate: обязательные поля WorkItem
//   - SetupContext: pipeline.Context и получатель сообщения
//   - ReportRunning: статус running на дашборде
//   - OpenSession: закрытие Edge и Acrobat, открытие карты пациента
//   - InitializationChecks: клиники, административная запись, договор в портале
//   - PrepareAssets: снимки, документ «Printet journal», файлы для портала
//   - RunPipeline: процесс в портале EDI (пакет edi)
//   - Finalize: квитанция и административная запись в журнале
//   - ReportOutcome: итоговый статус на дашборде
//   - Cleanup: закрытие приложения и очистка рабочих папок
//
// Документы и записи в журнале создаются через guard.Guard, поэтому
// повторная обработка того же элемента их не дублирует.
//
// Ошибка Process несёт класс domain.Kind. Бизнес-ошибки попадают на
// дашборд с кодом и сообщением и могут быть перезапущены, остальные
// получают общее сообщение.
package orchestrator
