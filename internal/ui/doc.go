// Package ui описывает доступ к внешнему интерфейсу.
//
// Робот управляет двумя интерфейсами: окном журнала пациента и страницей
// портала EDI. Оба скрыты за одним интерфейсом Accessor, поэтому шаги
// процесса и ожидание элементов (пакет waiter) не зависят от того,
// как именно находится элемент.
//
// Элемент ищется по упорядоченному списку кандидатов Selector: первый
// найденный кандидат побеждает. Это позволяет пережить мелкие изменения
// разметки портала (например, разные значения class у поля поиска).
//
// Реализации:
//   - browser.Accessor — страница портала через Chrome DevTools Protocol
//   - ui/uitest.Fake — программируемая подделка для тестов
package ui
