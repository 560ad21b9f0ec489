// Package repo предоставляет доступ к базам данных через pgx.
//
// Три источника:
//   - журнал пациентов: документы (DocumentRepo), записи (JournalNoteRepo),
//     клиники (ClinicRepo)
//   - служебная БД робота: константы и тексты бизнес-ошибок (RPARepo)
//   - архив снимков (ImageRepo)
//
// Выборки документов и записей строятся из Query: логическое поле →
// условие (Eq, Like, GTE, In), сортировка и лимит. Неизвестное поле —
// ошибка ErrUnknownField, текст запроса не собирается из ввода.
//
// Ошибки соединения и таймауты помечаются классом domain.KindTransient
// (см. IsTransient), их повторяет retry.Policy.
package repo
