// Package cli реализует инструмент командной строки робота выписки.
//
// # Обзор
//
// CLI нужен оператору рабочей станции: обработать один элемент вне
// очереди, поставить элемент в очередь, проверить конфигурацию и
// расшифровать CPR-номер.
//
// # Ключевые компоненты
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (go-pretty) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: discharge config --json | jq .
//
// ## Commands
//
//   - run: обработка элемента из JSON-файла под блокировкой сессии
//   - enqueue: публикация элемента в discharge.items
//   - topology: схема очередей RabbitMQ
//   - config: эффективная конфигурация с замаскированными секретами
//   - cpr: дата рождения и возраст по CPR
//
// Команды создаются фабричными функциями (NewRunCmd и т.д.), которые
// принимают configFn и outputFn — замыкания для ленивой загрузки
// конфигурации и создания Output после парсинга PersistentFlags.
package cli
