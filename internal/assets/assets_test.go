package assets

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/repo"
)

// fakeDocuments возвращает заданные документы и запоминает запрос.
type fakeDocuments struct {
	docs  []domain.Document
	err   error
	query *repo.Query
}

func (f *fakeDocuments) List(ctx context.Context, q *repo.Query) ([]domain.Document, error) {
	f.query = q
	return f.docs, f.err
}

// fakeImages — архив снимков с одним пациентом.
type fakeImages struct {
	person *repo.Person
	images []domain.PatientImage
}

func (f *fakeImages) Person(ctx context.Context, cpr string) (*repo.Person, error) {
	if f.person == nil {
		return nil, repo.ErrNotFound
	}
	return f.person, nil
}

func (f *fakeImages) Images(ctx context.Context, personID string) ([]domain.PatientImage, error) {
	return f.images, nil
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSelectDocuments(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 5, d, 10, 0, 0, 0, time.UTC) }
	docs := []domain.Document{
		{ID: "1", DocumentType: "Journaludskrift", OriginalFilename: "old.pdf", CreatedAt: day(1)},
		{ID: "2", DocumentType: "Udskrivning - 22 år!$#", OriginalFilename: "udskrivning.pdf", CreatedAt: day(2)},
		{ID: "3", DocumentType: "Journaludskrift", OriginalFilename: "new.pdf", CreatedAt: day(10)},
		{ID: "4", DocumentType: "Journaludskrift", OriginalFilename: "mid.pdf", CreatedAt: day(5)},
	}

	got := SelectDocuments(docs, "Anna Jensen")
	if len(got) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(got))
	}
	if got[0].ID != "2" {
		t.Errorf("expected discharge document first, got %s", got[0].ID)
	}
	if got[1].ID != "3" || got[1].OriginalFilename != "Journaludskrift - Anna Jensen.pdf" {
		t.Errorf("expected latest medical record renamed, got %+v", got[1])
	}

	// Исходный срез не меняется
	if docs[2].OriginalFilename != "new.pdf" {
		t.Error("expected input to be left untouched")
	}
}

func TestStageDocuments(t *testing.T) {
	src := t.TempDir()
	tmp := t.TempDir()

	docs := &fakeDocuments{docs: []domain.Document{
		{DocumentType: "Journaludskrift", OriginalFilename: "x.pdf", SourcePath: writeFile(t, filepath.Join(src, "x.pdf"), "journal"), CreatedAt: time.Now()},
		{DocumentType: "Udskrivning - 22 år!$#", OriginalFilename: "Udskrivning.pdf", SourcePath: writeFile(t, filepath.Join(src, "u.pdf"), "udskrivning")},
	}}
	s := NewStager(StagerConfig{Documents: docs, TmpDir: tmp, DischargeType: "Udskrivning - 22 år!$#"})

	item := &domain.WorkItem{CPR: "0101101234", PatientName: "Anna Jensen"}
	files, err := s.StageDocuments(context.Background(), item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dir := filepath.Join(tmp, "0101101234", PortalDir)
	want := []string{
		filepath.Join(dir, "Journaludskrift - Anna Jensen.pdf"),
		filepath.Join(dir, "Udskrivning.pdf"),
	}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Errorf("expected %v, got %v", want, files)
	}

	data, err := os.ReadFile(want[0])
	if err != nil || string(data) != "journal" {
		t.Errorf("unexpected copy: %q, %v", data, err)
	}

	types, _ := docs.query.Filters[repo.FieldDocumentType].Value.([]string)
	if len(types) != 2 || types[0] != "Journaludskrift" {
		t.Errorf("unexpected document types %v", types)
	}
}

func TestStageDocuments_NoDocuments(t *testing.T) {
	s := NewStager(StagerConfig{Documents: &fakeDocuments{}, TmpDir: t.TempDir()})

	_, err := s.StageDocuments(context.Background(), &domain.WorkItem{CPR: "0101101234"})
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
	if domain.KindOf(err) != domain.KindTechnical {
		t.Errorf("expected technical error, got %s", domain.KindOf(err))
	}
}

func TestArchiveImages(t *testing.T) {
	src := t.TempDir()
	tmp := t.TempDir()
	images := &fakeImages{
		person: &repo.Person{ID: "p1", Name: "Anna Marie Jensen"},
		images: []domain.PatientImage{
			{ID: "i1", FilePath: writeFile(t, filepath.Join(src, "a.png"), "A")},
			{ID: "i2", FilePath: writeFile(t, filepath.Join(src, "b.png"), "B")},
		},
	}
	s := NewStager(StagerConfig{TmpDir: tmp})

	archive, err := s.ArchiveImages(context.Background(), images, "0101101234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(tmp, "0101101234", PortalDir, "Røntgenbilleder - Anna Marie Jensen.zip")
	if archive != want {
		t.Errorf("expected %s, got %s", want, archive)
	}

	zr, err := zip.OpenReader(archive)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 2 || zr.File[0].Name != "a.png" || zr.File[1].Name != "b.png" {
		t.Errorf("unexpected archive contents: %v", zr.File)
	}
}

func TestArchiveImages_NoPerson(t *testing.T) {
	s := NewStager(StagerConfig{TmpDir: t.TempDir()})

	archive, err := s.ArchiveImages(context.Background(), &fakeImages{}, "0101101234")
	if err != nil || archive != "" {
		t.Errorf("expected no archive, got %q, %v", archive, err)
	}
}

func TestArchiveImages_NoImages(t *testing.T) {
	s := NewStager(StagerConfig{TmpDir: t.TempDir()})
	src := &fakeImages{person: &repo.Person{ID: "p1", Name: "Anna Jensen"}}

	archive, err := s.ArchiveImages(context.Background(), src, "0101101234")
	if err != nil || archive != "" {
		t.Errorf("expected no archive, got %q, %v", archive, err)
	}
}

func TestWorkspaceClean(t *testing.T) {
	tmp := t.TempDir()
	downloads := t.TempDir()
	writeFile(t, filepath.Join(tmp, "0101101234", PortalDir, "a.pdf"), "a")
	writeFile(t, filepath.Join(downloads, "Meddelelse.pdf"), "m")

	w := Workspace{TmpDir: tmp, DownloadsDir: downloads}
	if err := w.Clean(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, dir := range []string{tmp, downloads} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("folder should remain: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected %s to be empty, got %d entries", dir, len(entries))
		}
	}
}

func TestWorkspaceClean_MissingFolder(t *testing.T) {
	w := Workspace{TmpDir: filepath.Join(t.TempDir(), "missing")}
	if err := w.Clean(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
