package ports

import (
	"context"
	"io"
)

// StoragePort เก็บไฟล์ของ user (avatar) เปลี่ยน provider ได้ (local, s3)
type StoragePort interface {
	// UploadFile คืน URL ที่เข้าถึงไฟล์ได้
	UploadFile(ctx context.Context, file io.Reader, size int64, path string, contentType string) (string, error)

	DeleteFile(ctx context.Context, path string) error

	GetFileURL(path string) string

	// GetProviderName ชื่อ provider (local, s3)
	GetProviderName() string
}
