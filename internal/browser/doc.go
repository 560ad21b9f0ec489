// Package browser реализует ui.Accessor для портала EDI через протокол
// отладки браузера (chromedp).
//
// Браузер открывает приложение журнала. Attach подключается к нему по
// RemoteURL, находит вкладку портала и настраивает папку загрузок.
// Селекторы ByID, ByClass и ByCSS переводятся в CSS-запросы, ByName в
// XPath по видимому тексту, подписи или значению элемента.
//
// Методы не ждут элементы: Exists возвращает результат сразу, ожидание
// выполняет пакет waiter.
package browser
