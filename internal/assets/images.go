package assets

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/repo"
	"github.com/shaiso/discharge/internal/retry"
)

// ImageDir — подпапка для снимков пациента.
const ImageDir = "img"

// ImageSource — архив снимков.
type ImageSource interface {
	Person(ctx context.Context, cpr string) (*repo.Person, error)
	Images(ctx context.Context, personID string) ([]domain.PatientImage, error)
}

// ArchiveFilename возвращает имя архива снимков пациента.
func ArchiveFilename(personName string) string {
	return "Røntgenbilleder - " + personName + ".zip"
}

// ArchiveImages копирует снимки пациента и упаковывает их в zip в папке
// портала.
//
// Возвращает путь к архиву или пустую строку, если пациента нет в
// архиве снимков или у него нет снимков.
func (s *Stager) ArchiveImages(ctx context.Context, src ImageSource, cpr string) (string, error) {
	person, err := retry.Value(ctx, s.retry, "get image person", func(ctx context.Context) (*repo.Person, error) {
		return src.Person(ctx, cpr)
	})
	if errors.Is(err, repo.ErrNotFound) {
		s.logger.Info("patient not found in image archive")
		return "", nil
	}
	if err != nil {
		return "", err
	}

	images, err := retry.Value(ctx, s.retry, "list images", func(ctx context.Context) ([]domain.PatientImage, error) {
		return src.Images(ctx, person.ID)
	})
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		s.logger.Info("no images found for patient")
		return "", nil
	}

	imgDir := filepath.Join(s.tmpDir, cpr, ImageDir)
	if err := os.MkdirAll(imgDir, 0o755); err != nil {
		return "", domain.NewTechnicalError("create image dir", err)
	}
	for _, img := range images {
		dst := filepath.Join(imgDir, filepath.Base(img.FilePath))
		if err := copyFile(img.FilePath, dst); err != nil {
			return "", domain.NewTechnicalError("copy image "+img.ID, err)
		}
	}

	portalDir := s.PortalDir(cpr)
	if err := os.MkdirAll(portalDir, 0o755); err != nil {
		return "", domain.NewTechnicalError("create portal dir", err)
	}
	archive := filepath.Join(portalDir, ArchiveFilename(person.Name))
	if err := ZipDir(imgDir, archive); err != nil {
		return "", domain.NewTechnicalError("zip images", err)
	}

	s.logger.Info("images archived", "count", len(images), "archive", archive)
	return archive, nil
}

// ZipDir упаковывает файлы папки (без подпапок) в архив.
func ZipDir(dir, archive string) error {
	files, err := ListFiles(dir)
	if err != nil {
		return err
	}

	out, err := os.Create(archive)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(out)
	for _, path := range files {
		if err := addToZip(zw, path); err != nil {
			zw.Close()
			out.Close()
			return fmt.Errorf("add %s: %w", filepath.Base(path), err)
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func addToZip(zw *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
