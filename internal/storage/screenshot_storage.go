package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// ScreenshotStorage отвечает за файловое хранилище скриншотов оплаты.
// Принимаются только изображения: тип определяется по содержимому файла,
// а не по расширению.
type ScreenshotStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewScreenshotStorage создаёт файловое хранилище.
func NewScreenshotStorage(rootPath string, maxUploadMB int64) (*ScreenshotStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &ScreenshotStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save проверяет, что файл — изображение, сохраняет его и возвращает
// относительный путь.
func (s *ScreenshotStorage) Save(ctx context.Context, transactionID uuid.UUID, originalName string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	limitedReader := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	data, err := io.ReadAll(&limitedReader)
	if err != nil {
		return "", 0, fmt.Errorf("storage: ошибка чтения файла: %w", err)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return "", 0, fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return "", 0, fmt.Errorf("storage: не удалось определить тип файла: %w", err)
	}
	if kind.MIME.Type != "image" {
		return "", 0, fmt.Errorf("storage: скриншот оплаты должен быть изображением")
	}

	safeName := sanitizeFilename(originalName)
	fileName := fmt.Sprintf("%s_%d%s", transactionID.String(), time.Now().UnixNano(), filepath.Ext(safeName))

	txDir := filepath.Join(s.rootPath, transactionID.String())
	if err := os.MkdirAll(txDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать каталог транзакции: %w", err)
	}

	targetPath := filepath.Join(txDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, bytes.NewReader(data))
	if err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", 0, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	relative := filepath.Join(transactionID.String(), fileName)
	return relative, written, nil
}

// Delete удаляет файл из хранилища.
func (s *ScreenshotStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, relativePath)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "screenshot"
	}
	return name
}
