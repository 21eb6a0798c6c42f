package account

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cyberwithaman/digicon/internal/api"
	"github.com/cyberwithaman/digicon/internal/api/apitest"
	"github.com/cyberwithaman/digicon/internal/session"
)

func newService(t *testing.T) (*Service, *apitest.Server, session.Store) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), "")
	client := api.NewClient(srv.URL, 0, zerolog.Nop())
	return NewService(client, store, zerolog.Nop()), srv, store
}

func login(t *testing.T, svc *Service) {
	t.Helper()
	if _, err := svc.Login(context.Background(), apitest.Username, apitest.Password); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestLoginPersistsSession(t *testing.T) {
	svc, _, store := newService(t)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "  ", "x"); !errors.Is(err, ErrCredentialsRequired) {
		t.Fatalf("blank username err = %v", err)
	}

	sess, err := svc.Login(ctx, " "+apitest.Username+" ", apitest.Password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	stored, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stored != sess || stored.Token != apitest.Token || !stored.IsAdmin || stored.UserID != 1 {
		t.Errorf("stored session = %+v", stored)
	}
}

func TestLoginFailureKeepsStoreEmpty(t *testing.T) {
	svc, _, store := newService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, apitest.Username, "nope")
	if !api.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("store after failed login err = %v", err)
	}
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	svc, srv, store := newService(t)
	ctx := context.Background()
	login(t, svc)

	srv.Fail(http.MethodPost, "/auth/logout/", http.StatusInternalServerError)
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := srv.Last(http.MethodPost, "/auth/logout/"); !ok {
		t.Error("server logout not attempted")
	}
	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("session survived logout: %v", err)
	}

	before := len(srv.Requests())
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout without session: %v", err)
	}
	if len(srv.Requests()) != before {
		t.Error("logout without session contacted the server")
	}
}

func TestProfileRequiresSession(t *testing.T) {
	svc, srv, _ := newService(t)
	if _, err := svc.Profile(context.Background()); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("err = %v", err)
	}
	if len(srv.Requests()) != 0 {
		t.Error("request sent without session")
	}
}

func TestProfileAndUpdate(t *testing.T) {
	svc, srv, _ := newService(t)
	ctx := context.Background()
	login(t, svc)

	me, err := svc.Profile(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if me.Username != apitest.Username {
		t.Errorf("profile = %+v", me)
	}

	name := "Amy Pond"
	updated, err := svc.UpdateProfile(ctx, api.ProfileUpdate{FullName: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FullName == nil || *updated.FullName != name {
		t.Errorf("updated = %+v", updated)
	}
	rec, ok := srv.Last(http.MethodPut, "/users/1/")
	if !ok || rec.JSON["full_name"] != name {
		t.Errorf("update request = %+v", rec)
	}
	if _, sent := rec.JSON["email"]; sent {
		t.Error("unset email sent")
	}
}

func TestChangePassword(t *testing.T) {
	svc, srv, _ := newService(t)
	ctx := context.Background()
	login(t, svc)

	if err := svc.ChangePassword(ctx, "", ""); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("empty err = %v", err)
	}
	if err := svc.ChangePassword(ctx, "a", "b"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("mismatch err = %v", err)
	}
	if _, ok := srv.Last(http.MethodPost, "/users/password/change/"); ok {
		t.Fatal("invalid change sent")
	}

	if err := svc.ChangePassword(ctx, "n3w", "n3w"); err != nil {
		t.Fatalf("change: %v", err)
	}
	rec, _ := srv.Last(http.MethodPost, "/users/password/change/")
	if rec.JSON["new_password"] != "n3w" {
		t.Errorf("body = %v", rec.JSON)
	}
}

func TestUpdatePhoto(t *testing.T) {
	svc, srv, _ := newService(t)
	ctx := context.Background()
	login(t, svc)

	dir := t.TempDir()
	photo := filepath.Join(dir, "me.bin")
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	if err := os.WriteFile(photo, png, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := svc.UpdatePhoto(ctx, photo); err != nil {
		t.Fatalf("update photo: %v", err)
	}
	rec, ok := srv.Last(http.MethodPut, "/users/1/")
	if !ok {
		t.Fatal("photo not sent")
	}
	if got := rec.Files["profile_photo"]; len(got) != 1 || got[0] != "me.png" {
		t.Errorf("files = %v", got)
	}
	if got := rec.FileTypes["profile_photo"]; got[0] != "image/png" {
		t.Errorf("types = %v", got)
	}

	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdatePhoto(ctx, text); !errors.Is(err, ErrUnsupportedPhoto) {
		t.Errorf("text photo err = %v", err)
	}
}
