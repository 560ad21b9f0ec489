package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/repo"
	"github.com/shaiso/discharge/internal/retry"
)

// PortalDir — подпапка для файлов, загружаемых в портал.
const PortalDir = "edi_portal"

// ErrNoDocuments — у пациента нет документов для отправки.
var ErrNoDocuments = errors.New("no documents found for edi portal")

// DocumentSource — поиск документов в журнале.
type DocumentSource interface {
	List(ctx context.Context, q *repo.Query) ([]domain.Document, error)
}

// StagerConfig — конфигурация Stager.
type StagerConfig struct {
	Documents DocumentSource

	// TmpDir — корень временных папок.
	TmpDir string

	// DischargeType — тип документа о выписке, который отправляется
	// вместе с выпиской из журнала.
	DischargeType string

	Retry  retry.Policy
	Logger *slog.Logger
}

// Stager собирает документы пациента во временную папку для загрузки
// в портал.
type Stager struct {
	docs          DocumentSource
	tmpDir        string
	dischargeType string
	retry         retry.Policy
	logger        *slog.Logger
}

// NewStager создаёт Stager.
func NewStager(cfg StagerConfig) *Stager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Stager{
		docs:          cfg.Documents,
		tmpDir:        cfg.TmpDir,
		dischargeType: cfg.DischargeType,
		retry:         cfg.Retry,
		logger:        logger.With("component", "assets"),
	}
}

// PortalDir возвращает папку файлов для портала.
func (s *Stager) PortalDir(cpr string) string {
	return filepath.Join(s.tmpDir, cpr, PortalDir)
}

// StageDocuments копирует документы пациента в папку портала и
// возвращает все файлы этой папки.
//
// Из выписок из журнала берётся только последняя, она переименовывается
// в «Journaludskrift - <имя>.pdf». Документы о выписке копируются все.
func (s *Stager) StageDocuments(ctx context.Context, item *domain.WorkItem) ([]string, error) {
	q := repo.NewQuery().
		Where(repo.FieldCPR, repo.Eq(item.CPR)).
		Where(repo.FieldDocumentType, repo.In(domain.DocumentTypeMedicalRecord, s.dischargeType)).
		Order(repo.FieldCreatedAt, repo.Desc)

	docs, err := retry.Value(ctx, s.retry, "list portal documents", func(ctx context.Context) ([]domain.Document, error) {
		return s.docs.List(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	selected := SelectDocuments(docs, item.PatientName)
	if len(selected) == 0 {
		return nil, domain.NewTechnicalError("stage documents", ErrNoDocuments)
	}
	s.logger.Info("documents selected for edi portal", "found", len(docs), "selected", len(selected))

	dir := s.PortalDir(item.CPR)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.NewTechnicalError("create portal dir", err)
	}
	for _, doc := range selected {
		dst := filepath.Join(dir, doc.OriginalFilename)
		if err := copyFile(doc.SourcePath, dst); err != nil {
			return nil, domain.NewTechnicalError("copy "+doc.OriginalFilename, err)
		}
		s.logger.Debug("document copied", "source", doc.SourcePath, "destination", dst)
	}

	return ListFiles(dir)
}

// SelectDocuments оставляет последнюю выписку из журнала и все
// остальные документы. Имя выписки заменяется на «Journaludskrift - <имя>.pdf».
func SelectDocuments(docs []domain.Document, patientName string) []domain.Document {
	var (
		out    []domain.Document
		latest *domain.Document
	)
	for i := range docs {
		doc := docs[i]
		if doc.DocumentType != domain.DocumentTypeMedicalRecord {
			out = append(out, doc)
			continue
		}
		if latest == nil || doc.CreatedAt.After(latest.CreatedAt) {
			latest = &doc
		}
	}
	if latest != nil {
		latest.OriginalFilename = MedicalRecordFilename(patientName)
		out = append(out, *latest)
	}
	return out
}

// MedicalRecordFilename возвращает имя файла выписки из журнала.
func MedicalRecordFilename(patientName string) string {
	return domain.DocumentTypeMedicalRecord + " - " + patientName + ".pdf"
}

// ListFiles возвращает файлы папки (без подпапок) по алфавиту.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.NewTechnicalError("list "+dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// copyFile копирует файл с сохранением времени изменения.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
