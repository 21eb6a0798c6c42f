package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cyberwithaman/digicon/internal/models"
	"github.com/cyberwithaman/digicon/internal/security"
)

type fileEnvelope struct {
	Version int              `json:"v"`
	Sealed  *security.Sealed `json:"sealed,omitempty"`
	Plain   *models.Session  `json:"session,omitempty"`
}

// FileStore keeps the session in a JSON file. With a passphrase the session
// is sealed at rest.
type FileStore struct {
	path       string
	passphrase string
}

func NewFileStore(path, passphrase string) *FileStore {
	return &FileStore{path: path, passphrase: passphrase}
}

func (s *FileStore) Load(ctx context.Context) (models.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Session{}, ErrNoSession
		}
		return models.Session{}, fmt.Errorf("read session: %w", err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.Session{}, fmt.Errorf("decode session file: %w", err)
	}

	switch {
	case env.Sealed != nil:
		if s.passphrase == "" {
			return models.Session{}, fmt.Errorf("session is sealed: %w", security.ErrOpen)
		}
		plain, err := security.Open(s.passphrase, *env.Sealed)
		if err != nil {
			return models.Session{}, err
		}
		var sess models.Session
		if err := json.Unmarshal(plain, &sess); err != nil {
			return models.Session{}, fmt.Errorf("decode sealed session: %w", err)
		}
		return sess, nil
	case env.Plain != nil:
		return *env.Plain, nil
	default:
		return models.Session{}, ErrNoSession
	}
}

func (s *FileStore) Save(ctx context.Context, sess models.Session) error {
	env := fileEnvelope{Version: 1}
	if s.passphrase != "" {
		plain, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		sealed, err := security.Seal(s.passphrase, plain)
		if err != nil {
			return fmt.Errorf("seal session: %w", err)
		}
		env.Sealed = &sealed
	} else {
		env.Plain = &sess
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
