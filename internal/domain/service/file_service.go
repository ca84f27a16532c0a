package service

import (
	"context"
	"io"
)

type FileUploadService interface {
	// UploadFile stores the content under folder and returns its URL.
	UploadFile(ctx context.Context, file io.Reader, contentType, folder string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
	Close() error
}
