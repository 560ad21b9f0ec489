// Package guard обеспечивает однократное создание артефактов.
//
// Перед каждым видимым действием (документ в журнале, запись в журнале)
// Guard ищет такой же артефакт в журнале пациента за последние 30 дней.
// Если он найден, создание пропускается. Так перезапуск элемента после
// сбоя не создаёт дубликатов.
//
// Guard не берёт блокировок: сессия приложения эксклюзивна для хоста,
// поэтому достаточно «проверить, затем создать».
package guard
