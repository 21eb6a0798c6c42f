package cli

import (
	"errors"

	"github.com/cyberwithaman/digicon/internal/api"
	"github.com/cyberwithaman/digicon/internal/session"
)

// Message renders err the way the user should read it.
func Message(err error) string {
	var (
		te *api.TransportError
		se *api.StatusError
	)
	switch {
	case errors.Is(err, session.ErrNoSession):
		return "Not logged in. Run `digicon login` first."
	case errors.Is(err, api.ErrNotAuthenticated), errors.As(err, &te), errors.As(err, &se):
		return api.UserMessage(err, "Request failed")
	default:
		return err.Error()
	}
}
