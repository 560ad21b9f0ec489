package domain

// Договоры клиник, которые в портале EDI принимают сообщения через
// общий договор.
const (
	ContractorHasleTorv      = "477052"
	ContractorBrobjergparken = "470678"

	// SharedContractorID — договор, на который отправляются сообщения
	// для Hasle Torv и Brobjergparken.
	SharedContractorID = "485055"

	// SharedPhoneNumber — телефон общего договора.
	SharedPhoneNumber = "86135240"
)

// PrimaryClinic — клиника, в которой пациент наблюдается сейчас.
type PrimaryClinic struct {
	PatientID  string
	ClinicName string
	ClinicID   string
}

// ExternClinic — частная клиника, куда выписывается пациент,
// как она записана в журнале пациента.
type ExternClinic struct {
	ContractorID string
	Name         string
	PhoneNumber  string
}

// Recipient — получатель сообщения в портале EDI.
type Recipient struct {
	// ContractorID — договор, по которому ищется получатель.
	ContractorID string

	// Phone — телефон, по которому выбирается строка в таблице получателей.
	Phone string

	// ClinicLabel — вставка в тему сообщения перед именем пациента.
	ClinicLabel string
}

// SearchTerm возвращает строку для поиска получателя: договор, если он
// известен, иначе телефон.
func (r Recipient) SearchTerm() string {
	if r.ContractorID != "" {
		return r.ContractorID
	}
	return r.Phone
}

// ResolveRecipient определяет получателя для клиники.
//
// Клиники Hasle Torv и Brobjergparken получают сообщения через общий
// договор, в тему добавляется название клиники.
func ResolveRecipient(clinic ExternClinic) Recipient {
	switch clinic.ContractorID {
	case ContractorHasleTorv:
		return Recipient{
			ContractorID: SharedContractorID,
			Phone:        SharedPhoneNumber,
			ClinicLabel:  " på Tandklinikken Hasle Torv ",
		}
	case ContractorBrobjergparken:
		return Recipient{
			ContractorID: SharedContractorID,
			Phone:        SharedPhoneNumber,
			ClinicLabel:  " på Tandklinikken Brobjergparken ",
		}
	default:
		return Recipient{
			ContractorID: clinic.ContractorID,
			Phone:        clinic.PhoneNumber,
			ClinicLabel:  " ",
		}
	}
}

// Subject собирает тему сообщения из базовой темы и имени пациента.
func (r Recipient) Subject(base, patientName string) string {
	return base + r.ClinicLabel + patientName
}
