package share

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cyberwithaman/digicon/internal/config"
	"github.com/cyberwithaman/digicon/internal/security"
)

var ErrNotShared = errors.New("shared report not found")

// LinkSharer keeps reports in the share dir and hands out signed links that
// the share server resolves.
type LinkSharer struct {
	files   *FileSharer
	baseURL string
	secret  string
	ttl     time.Duration
	log     zerolog.Logger
}

func NewLinkSharer(cfg config.ShareConfig, log zerolog.Logger) (*LinkSharer, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("share.secret is required for link sharing")
	}
	ttl := cfg.LinkTTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &LinkSharer{
		files:   NewFileSharer(cfg.Dir),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		secret:  cfg.Secret,
		ttl:     ttl,
		log:     log,
	}, nil
}

func (s *LinkSharer) Share(ctx context.Context, path string) (string, error) {
	dst, err := s.files.Share(ctx, path)
	if err != nil {
		return "", err
	}

	name := filepath.Base(dst)
	token, err := security.GenerateShareToken(s.secret, reportID(name), name, s.ttl)
	if err != nil {
		return "", err
	}

	s.log.Info().Str("file", name).Dur("ttl", s.ttl).Msg("share link issued")
	return s.baseURL + "/reports/" + token, nil
}

// Resolve verifies a link token and returns the file it names.
func (s *LinkSharer) Resolve(token string) (string, error) {
	claims, err := security.ParseShareToken(token, s.secret)
	if err != nil {
		return "", err
	}

	name := filepath.Base(claims.File)
	if name == "." || name == string(filepath.Separator) || name != claims.File {
		return "", security.ErrInvalidShareToken
	}

	path := filepath.Join(s.files.Dir(), name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotShared
		}
		return "", fmt.Errorf("stat shared report: %w", err)
	}
	return path, nil
}

func (s *LinkSharer) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	return s.files.Purge(ctx, cutoff)
}

func reportID(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.TrimPrefix(name, "report-")
}
