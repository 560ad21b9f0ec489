// Package edi реализует действия в портале EDI: поиск получателя,
// заполнение и отправку сообщения с журналом, скачивание квитанции.
//
// # Обзор
//
// Portal работает поверх ui.Accessor и ждёт элементы через waiter.
// Каждый элемент задан списком кандидатов: портал иногда меняет
// атрибуты (например, класс поля поиска после проверки ввода).
//
// Steps возвращает шаги для pipeline.Executor:
//
//	is_patient_data_sent → go_to_send_journal → click_next_patient →
//	lookup_contractor → choose_receiver → click_next_receiver →
//	add_content → click_next_content → upload_files →
//	click_next_upload → click_next_priority → send_message
//
// и завершающие шаги fetch_receipt → rename_receipt. Если сообщение уже
// отправлялось за последние 30 дней, основные шаги пропускаются, а
// квитанция скачивается в любом случае.
//
// # Текст сообщения
//
// RenderBody подставляет в шаблон запись продолжения журнала
// (@dentalPlan) и месяц осмотра (@examinationDate) по-датски.
package edi
