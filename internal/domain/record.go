package domain

import "time"

// Типы документов в журнале пациента.
const (
	// DocumentTypeMedicalRecord — распечатка журнала.
	DocumentTypeMedicalRecord = "Journaludskrift"
)

// Document — документ в журнале пациента.
type Document struct {
	ID               string
	CPR              string
	DocumentType     string
	Description      string
	OriginalFilename string
	SourcePath       string
	CreatedAt        time.Time
}

// JournalNote — запись (заметка) в журнале пациента.
type JournalNote struct {
	ID           string
	CPR          string
	Description  string
	DocumentedAt time.Time
}

// PatientImage — снимок пациента в архиве снимков.
type PatientImage struct {
	ID       string
	PersonID string
	FilePath string
	TakenAt  time.Time
}
