// Package share hands finished report files to the user: a local copy, an
// object-store upload or a signed link served by the share server.
package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cyberwithaman/digicon/internal/config"
	"github.com/cyberwithaman/digicon/internal/storage"
)

const (
	ModeFile   = "file"
	ModeObject = "object"
	ModeLink   = "link"
)

// reportPattern matches the files Purge may remove.
const reportPattern = "report-*.html"

type Sharer interface {
	Share(ctx context.Context, path string) (string, error)
}

// Purger removes reports last modified before cutoff.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int, error)
}

// Purgers sweeps several report locations as one. A failing location does
// not stop the others.
type Purgers []Purger

func (p Purgers) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	var errs []error
	for _, purger := range p {
		n, err := purger.Purge(ctx, cutoff)
		removed += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}

// New picks the sharer named by share.mode. Object mode creates the bucket
// when it does not exist yet.
func New(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (Sharer, error) {
	switch strings.ToLower(cfg.Share.Mode) {
	case "", ModeFile:
		return NewFileSharer(cfg.Share.Dir), nil
	case ModeLink:
		return NewLinkSharer(cfg.Share, log)
	case ModeObject:
		store, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return NewObjectSharer(store, log), nil
	default:
		return nil, fmt.Errorf("unknown share mode %q", cfg.Share.Mode)
	}
}

// FileSharer copies reports into a local directory.
type FileSharer struct {
	dir string
}

func NewFileSharer(dir string) *FileSharer {
	return &FileSharer{dir: dir}
}

func (s *FileSharer) Dir() string {
	return s.dir
}

func (s *FileSharer) Share(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst, err := copyInto(s.dir, path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dst)
	if err != nil {
		return dst, nil
	}
	return abs, nil
}

// Purge removes report files last modified before cutoff. Anything else in
// the directory is left alone.
func (s *FileSharer) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read share dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(reportPattern, entry.Name()); !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func copyInto(dir, src string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create share dir: %w", err)
	}

	dst := filepath.Join(dir, filepath.Base(src))
	if filepath.Clean(dst) == filepath.Clean(src) {
		return dst, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open report: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(dir, ".share-*")
	if err != nil {
		return "", fmt.Errorf("create share file: %w", err)
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("copy report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close share file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("chmod share file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("move share file: %w", err)
	}
	return dst, nil
}
