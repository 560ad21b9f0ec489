package assets

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

// Workspace — локальные папки, которые очищаются после каждой обработки.
type Workspace struct {
	TmpDir       string
	DownloadsDir string
	Logger       *slog.Logger
}

// Clean очищает временную папку и папку загрузок.
//
// Ошибки удаления отдельных файлов логируются и не прерывают очистку;
// возвращается объединённая ошибка.
func (w Workspace) Clean() error {
	return errors.Join(
		EmptyDir(w.TmpDir, w.logger()),
		EmptyDir(w.DownloadsDir, w.logger()),
	)
}

func (w Workspace) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}

// EmptyDir удаляет всё содержимое папки, саму папку оставляет.
// Несуществующая папка не считается ошибкой.
func EmptyDir(dir string, logger *slog.Logger) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("folder does not exist", "dir", dir)
		return nil
	}
	if err != nil {
		return err
	}

	var errs []error
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Error("failed to delete", "path", path, "error", err)
			errs = append(errs, err)
		}
	}
	logger.Info("folder cleaned up", "dir", dir, "entries", len(entries))
	return errors.Join(errs...)
}
