// Package assets готовит локальные файлы для отправки в портал и
// очищает рабочие папки.
//
// Структура временной папки:
//
//	<tmp>/<cpr>/edi_portal/   файлы для загрузки в портал
//	<tmp>/<cpr>/img/          снимки пациента до упаковки
//
// Stager копирует последнюю выписку из журнала и документы о выписке в
// папку портала, а снимки из архива упаковывает в zip там же. Workspace
// очищает временную папку и папку загрузок браузера после обработки.
package assets
