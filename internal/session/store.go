// Package session persists the signed-in user's credentials between runs.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyberwithaman/digicon/internal/config"
	"github.com/cyberwithaman/digicon/internal/models"
)

var ErrNoSession = errors.New("no session stored")

// Store holds at most one session. Clear removes it wholesale.
type Store interface {
	Load(ctx context.Context) (models.Session, error)
	Save(ctx context.Context, sess models.Session) error
	Clear(ctx context.Context) error
	Close() error
}

// Open builds the store selected by session.backend.
func Open(ctx context.Context, cfg *config.AppConfig) (Store, error) {
	switch cfg.Session.Backend {
	case "", "file":
		return NewFileStore(cfg.Session.Path, cfg.Session.Passphrase), nil
	case "redis":
		return OpenRedisStore(ctx, cfg.Redis, cfg.Session.KeyPrefix)
	case "postgres":
		return OpenPostgresStore(ctx, cfg.Postgres, cfg.Session.KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// Require loads the session and maps absence to the error callers surface
// as "please log in".
func Require(ctx context.Context, store Store) (models.Session, error) {
	sess, err := store.Load(ctx)
	if err != nil {
		return models.Session{}, err
	}
	if !sess.Authenticated() {
		return models.Session{}, ErrNoSession
	}
	return sess, nil
}
