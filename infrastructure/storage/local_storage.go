package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"taskflow/domain/ports"
)

// LocalStorage เก็บไฟล์ใน local filesystem แล้ว serve ผ่าน fiber static
type LocalStorage struct {
	basePath string // เช่น ./uploads
	baseURL  string // เช่น http://localhost:8080/uploads
}

type LocalStorageConfig struct {
	BasePath string
	BaseURL  string
}

func NewLocalStorage(config LocalStorageConfig) (ports.StoragePort, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: config.BasePath,
		baseURL:  strings.TrimSuffix(config.BaseURL, "/"),
	}, nil
}

func (l *LocalStorage) UploadFile(ctx context.Context, file io.Reader, size int64, path string, contentType string) (string, error) {
	fullPath, err := l.resolve(path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return l.GetFileURL(path), nil
}

func (l *LocalStorage) DeleteFile(ctx context.Context, path string) error {
	fullPath, err := l.resolve(path)
	if err != nil {
		return err
	}

	// ไฟล์ไม่มีอยู่แล้ว ถือว่าสำเร็จ
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	l.cleanupEmptyDirs(filepath.Dir(fullPath))
	return nil
}

func (l *LocalStorage) GetFileURL(path string) string {
	path = normalizePath(path)
	return l.baseURL + "/" + path
}

func (l *LocalStorage) GetProviderName() string {
	return "local"
}

// resolve กัน path หลุดออกนอก basePath (../)
func (l *LocalStorage) resolve(path string) (string, error) {
	path = normalizePath(path)
	fullPath := filepath.Join(l.basePath, filepath.FromSlash(path))

	absBase, err := filepath.Abs(l.basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if absPath != absBase && !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage directory", path)
	}
	return fullPath, nil
}

// cleanupEmptyDirs ลบ directory ว่างๆ ขึ้นไปจนถึง basePath
func (l *LocalStorage) cleanupEmptyDirs(dir string) {
	absBase, _ := filepath.Abs(l.basePath)
	absDir, _ := filepath.Abs(dir)

	for absDir != absBase && strings.HasPrefix(absDir, absBase) {
		entries, err := os.ReadDir(absDir)
		if err != nil || len(entries) > 0 {
			break
		}
		os.Remove(absDir)
		absDir = filepath.Dir(absDir)
	}
}

func normalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.TrimPrefix(path, "/")
}
