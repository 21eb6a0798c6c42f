package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cyberwithaman/digicon/internal/api"
	"github.com/cyberwithaman/digicon/internal/models"
)

// TemporaryPassword is what a reset assigns. The administrator relays it to
// the user out of band.
const TemporaryPassword = "TempPassword123!"

var ErrForbidden = errors.New("you do not have permission to manage users")

type UserAPI interface {
	GetUser(ctx context.Context, sess models.Session, id int64) (models.User, error)
	ListUsers(ctx context.Context, sess models.Session) ([]models.User, error)
	SaveUser(ctx context.Context, sess models.Session, id *int64, payload api.UserPayload) (models.User, error)
	DeleteUser(ctx context.Context, sess models.Session, id int64) error
	ResetPassword(ctx context.Context, sess models.Session, id int64, password string) error
}

// Confirmer asks the operator to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type Manager struct {
	api     UserAPI
	sess    models.Session
	confirm Confirmer
	log     zerolog.Logger

	mu    sync.RWMutex
	users []models.User
}

func NewManager(userAPI UserAPI, sess models.Session, confirm Confirmer, log zerolog.Logger) *Manager {
	return &Manager{
		api:     userAPI,
		sess:    sess,
		confirm: confirm,
		log:     log,
	}
}

// Authorize checks the signed-in user's role against the server copy.
func (m *Manager) Authorize(ctx context.Context) (models.User, error) {
	me, err := m.api.GetUser(ctx, m.sess, m.sess.UserID)
	if err != nil {
		return models.User{}, fmt.Errorf("fetch current user: %w", err)
	}
	if !me.Role.CanManageUsers() {
		return me, ErrForbidden
	}
	return me, nil
}

func (m *Manager) Refresh(ctx context.Context) ([]models.User, error) {
	users, err := m.api.ListUsers(ctx, m.sess)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	m.mu.Lock()
	m.users = users
	m.mu.Unlock()

	return append([]models.User(nil), users...), nil
}

func (m *Manager) Users() []models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.User(nil), m.users...)
}

func (m *Manager) Lookup(id int64) (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

// Submit validates and sends the form, then reloads the list and resets the
// form to create mode.
func (m *Manager) Submit(ctx context.Context, form *Form) (models.User, error) {
	if err := form.Validate(); err != nil {
		return models.User{}, err
	}

	mode := form.Mode()
	user, err := m.api.SaveUser(ctx, m.sess, form.Selected(), form.Payload())
	if err != nil {
		return models.User{}, fmt.Errorf("%s user: %w", mode, err)
	}

	m.log.Info().Str("mode", mode.String()).Int64("user_id", user.ID).Msg("user saved")
	form.Select(nil)

	if _, err := m.Refresh(ctx); err != nil {
		m.log.Warn().Err(err).Msg("reload users after save")
	}
	return user, nil
}

// ResetPassword assigns TemporaryPassword after confirmation. It reports
// whether the reset was carried out.
func (m *Manager) ResetPassword(ctx context.Context, id int64) (bool, error) {
	ok, err := m.ask(ctx, fmt.Sprintf("Reset the password of user %s to the temporary password?", m.label(id)))
	if err != nil || !ok {
		return false, err
	}

	if err := m.api.ResetPassword(ctx, m.sess, id, TemporaryPassword); err != nil {
		return false, fmt.Errorf("reset password: %w", err)
	}
	m.log.Info().Int64("user_id", id).Msg("password reset")

	if _, err := m.Refresh(ctx); err != nil {
		m.log.Warn().Err(err).Msg("reload users after reset")
	}
	return true, nil
}

// Delete removes a user after confirmation.
func (m *Manager) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := m.ask(ctx, fmt.Sprintf("Delete user %s? This cannot be undone.", m.label(id)))
	if err != nil || !ok {
		return false, err
	}

	if err := m.api.DeleteUser(ctx, m.sess, id); err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	m.log.Info().Int64("user_id", id).Msg("user deleted")

	if _, err := m.Refresh(ctx); err != nil {
		m.log.Warn().Err(err).Msg("reload users after delete")
	}
	return true, nil
}

func (m *Manager) ask(ctx context.Context, prompt string) (bool, error) {
	if m.confirm == nil {
		return false, nil
	}
	ok, err := m.confirm.Confirm(ctx, prompt)
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	return ok, nil
}

func (m *Manager) label(id int64) string {
	if u, ok := m.Lookup(id); ok {
		return fmt.Sprintf("%q", u.Username)
	}
	return fmt.Sprintf("#%d", id)
}
