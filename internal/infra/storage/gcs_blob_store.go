package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

const defaultPublicBaseURL = "https://storage.googleapis.com"

// GCSBlobStore listing 圖片, banner 與頭像都放在同一個 bucket, 以 prefix 區分
type GCSBlobStore struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

func NewGCSBlobStore(client *storage.Client, bucket string) (*GCSBlobStore, error) {
	if client == nil {
		return nil, errors.New("gcs blob store: storage client is nil")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("gcs blob store: bucket is empty")
	}
	return &GCSBlobStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: defaultPublicBaseURL,
	}, nil
}

func (s *GCSBlobStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return errors.New("gcs blob store: object path is empty")
	}
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs blob store: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs blob store: close %s: %w", path, err)
	}
	return nil
}

// Delete 物件不存在視為成功
func (s *GCSBlobStore) Delete(ctx context.Context, path string) error {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return nil
	}
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs blob store: delete %s: %w", path, err)
	}
	return nil
}

// PublicURL bucket 需開放 allUsers 讀取
func (s *GCSBlobStore) PublicURL(path string) string {
	return PublicURL(s.publicBaseURL, s.bucket, path)
}

func PublicURL(baseURL, bucket, path string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), bucket, strings.TrimLeft(path, "/"))
}
