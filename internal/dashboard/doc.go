// Package dashboard сообщает статус обработки на дашборд процессов.
//
// Дашборд хранит запуски процесса по CPR пациента. Чтобы обновить статус
// шага, Reporter находит запись цепочкой запросов:
//
//	GET   /processes/?include_deleted=false              → процесс по имени
//	GET   /steps/process/{process}?include_deleted=false  → шаг по имени
//	GET   /runs/?process_id={process}&meta_filter=cpr:{cpr} → последний запуск
//	GET   /step-runs/run/{run}/step/{step}               → запись о шаге
//	PATCH /step-runs/{id}
//
// Ошибки сети и ответы 5xx повторяются по retry.Policy. Остальные ошибки
// возвращаются вызывающему; оркестратор только логирует их.
package dashboard
