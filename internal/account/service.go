// Package account covers the signed-in user's own lifecycle: login, logout
// and profile maintenance.
package account

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cyberwithaman/digicon/internal/api"
	"github.com/cyberwithaman/digicon/internal/media/sniffer"
	"github.com/cyberwithaman/digicon/internal/models"
	"github.com/cyberwithaman/digicon/internal/session"
)

var (
	ErrCredentialsRequired = errors.New("please enter both username and password")
	ErrPasswordRequired    = errors.New("please enter a new password")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrUnsupportedPhoto    = errors.New("profile photo must be an image")
)

type API interface {
	Login(ctx context.Context, username, password string) (models.LoginResponse, error)
	Logout(ctx context.Context, sess models.Session) error
	GetUser(ctx context.Context, sess models.Session, id int64) (models.User, error)
	UpdateProfile(ctx context.Context, sess models.Session, update api.ProfileUpdate) (models.User, error)
	UpdateProfilePhoto(ctx context.Context, sess models.Session, photo api.File) error
	ChangePassword(ctx context.Context, sess models.Session, password string) error
}

type Service struct {
	api   API
	store session.Store
	log   zerolog.Logger
}

func NewService(accountAPI API, store session.Store, log zerolog.Logger) *Service {
	return &Service{api: accountAPI, store: store, log: log}
}

func (s *Service) Login(ctx context.Context, username, password string) (models.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Session{}, ErrCredentialsRequired
	}

	resp, err := s.api.Login(ctx, username, password)
	if err != nil {
		return models.Session{}, fmt.Errorf("login: %w", err)
	}

	sess := resp.Session()
	if sess.Username == "" {
		sess.Username = username
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return models.Session{}, fmt.Errorf("save session: %w", err)
	}

	s.log.Info().Str("username", sess.Username).Bool("admin", sess.IsAdmin).Msg("logged in")
	return sess, nil
}

// Logout tells the server and then clears the local session whether or not
// the server call succeeded.
func (s *Service) Logout(ctx context.Context) error {
	sess, err := s.store.Load(ctx)
	switch {
	case err == nil && sess.Authenticated():
		if err := s.api.Logout(ctx, sess); err != nil {
			s.log.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
		}
	case err != nil && !errors.Is(err, session.ErrNoSession):
		s.log.Warn().Err(err).Msg("unreadable session, clearing")
	}

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Service) Session(ctx context.Context) (models.Session, error) {
	return session.Require(ctx, s.store)
}

func (s *Service) Profile(ctx context.Context) (models.User, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.api.GetUser(ctx, sess, sess.UserID)
	if err != nil {
		return models.User{}, fmt.Errorf("fetch profile: %w", err)
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, update api.ProfileUpdate) (models.User, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.api.UpdateProfile(ctx, sess, update)
	if err != nil {
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, newPassword, confirm string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}

	sess, err := s.Session(ctx)
	if err != nil {
		return err
	}
	if err := s.api.ChangePassword(ctx, sess, newPassword); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// UpdatePhoto uploads a raster image from path as the profile photo.
func (s *Service) UpdatePhoto(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read photo: %w", err)
	}

	kind, err := sniffer.DetectHead(data)
	if err != nil || kind.Type == sniffer.TypeSVG {
		return ErrUnsupportedPhoto
	}

	sess, err := s.Session(ctx)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "." + kind.Extension()
	if err := s.api.UpdateProfilePhoto(ctx, sess, api.File{Name: name, ContentType: kind.MIME, Data: data}); err != nil {
		return fmt.Errorf("update photo: %w", err)
	}
	return nil
}
