package objstore

import (
	"context"
	"fmt"

	"examvault/internal/config"
)

// StoredObject is the durable reference returned for an uploaded scan.
type StoredObject struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (StoredObject, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

func New(cfg config.Config) (Store, error) {
	switch cfg.ObjectStore {
	case "s3":
		return NewS3Store(cfg.S3Bucket, cfg.S3Region)
	case "memory", "":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unsupported object store: %s", cfg.ObjectStore)
}
