package share

import (
	"context"
	"mime"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/cyberwithaman/digicon/internal/storage"
)

const objectPrefix = "reports/"

type ObjectStore interface {
	PutFile(ctx context.Context, key, path, contentType string) error
	PresignGet(ctx context.Context, key string) (string, error)
	RemoveOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error)
}

// ObjectSharer uploads reports to a bucket and returns a presigned URL.
type ObjectSharer struct {
	store ObjectStore
	log   zerolog.Logger
}

func NewObjectSharer(store *storage.ObjectStore, log zerolog.Logger) *ObjectSharer {
	return newObjectSharer(minioStore{store}, log)
}

func newObjectSharer(store ObjectStore, log zerolog.Logger) *ObjectSharer {
	return &ObjectSharer{store: store, log: log}
}

func (s *ObjectSharer) Share(ctx context.Context, path string) (string, error) {
	key := objectPrefix + filepath.Base(path)

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.store.PutFile(ctx, key, path, contentType); err != nil {
		return "", err
	}
	s.log.Info().Str("key", key).Msg("report uploaded")

	return s.store.PresignGet(ctx, key)
}

func (s *ObjectSharer) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	return s.store.RemoveOlderThan(ctx, objectPrefix, cutoff)
}

type minioStore struct {
	*storage.ObjectStore
}

func (m minioStore) PresignGet(ctx context.Context, key string) (string, error) {
	u, err := m.ObjectStore.PresignGet(ctx, key)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
