// Package bridge реализует session.App через агента на рабочей станции.
//
// Агент принимает JSON-запросы по WebSocket:
//
//	→ {"id": "<uuid>", "method": "app.open_patient", "params": {"cpr": "..."}}
//	← {"id": "<uuid>", "result": {...}}
//	← {"id": "<uuid>", "error": {"code": "...", "message": "..."}}
//
// Client отправляет запросы строго по одному и ждёт ответ с тем же id.
// Ошибка транспорта закрывает соединение; следующий вызов подключается
// заново.
package bridge
