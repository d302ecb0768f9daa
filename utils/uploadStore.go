package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
)

// UploadStore keeps uploaded import files and returns the URI a
// FileSources can read them back from.
type UploadStore interface {
	Save(ctx context.Context, name string, r io.Reader) (uri string, err error)
}

type LocalUploadStore struct {
	Dir string
}

func (s LocalUploadStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(s.Dir, GenerateUniqueFilename(filepath.Base(name)))
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return dst, nil
}

type GCSUploadStore struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSUploadStore(client *storage.Client, bucket string) *GCSUploadStore {
	return &GCSUploadStore{client: client, bucket: bucket, prefix: "inventoryImports/"}
}

func (s *GCSUploadStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	objectName := s.prefix + GenerateUniqueFilename(filepath.Base(name))
	wc := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = "text/csv"
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to upload file to storage provider: %v", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to upload file to storage provider: %v", err)
	}
	return "gs://" + s.bucket + "/" + objectName, nil
}
