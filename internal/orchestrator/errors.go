package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrExternClinicNotSet — в журнале пациента не указана частная клиника.
	ErrExternClinicNotSet = errors.New("extern clinic data is not set")

	// ErrPhoneNotSet — у частной клиники нет телефона.
	ErrPhoneNotSet = errors.New("extern clinic phone number is not set")

	// ErrContractorNotFound — договор не найден в портале (код 1G).
	ErrContractorNotFound = errors.New("contractor not found in edi portal")

	// ErrPhoneMismatch — телефон клиники не совпадает с порталом (код 1H).
	ErrPhoneMismatch = errors.New("contractor phone number does not match edi portal")
)

// Коды бизнес-ошибок начальных проверок. Тексты берутся из таблицы
// сообщений робота.
const (
	CodeExternClinicNotSet = "1E"
	CodePhoneNotSet        = "1F"
	CodeContractorNotFound = "1G"
	CodePhoneMismatch      = "1H"
)

// Сообщения по умолчанию, если в таблице нет текста для кода.
const (
	defaultContractorNotFoundMessage = "Ydernummeret blev ikke fundet i EDI-portalen."
	defaultPhoneMismatchMessage      = "Telefonnummeret matcher ikke klinikken i EDI-portalen."
	defaultPhoneNotSetMessage        = "Telefonnummer på ekstern klinik er ikke udfyldt."
	externClinicNotSetMessage        = "Extern clinic data is not set."
)
