package api_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cyberwithaman/digicon/internal/api"
	"github.com/cyberwithaman/digicon/internal/api/apitest"
	"github.com/cyberwithaman/digicon/internal/models"
)

func newClient(t *testing.T) (*api.Client, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, 0, zerolog.Nop()), srv
}

func TestLogin(t *testing.T) {
	client, _ := newClient(t)
	ctx := context.Background()

	resp, err := client.Login(ctx, apitest.Username, apitest.Password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token != apitest.Token || !resp.IsAdmin || resp.UserID != 1 {
		t.Fatalf("login response = %+v", resp)
	}

	_, err = client.Login(ctx, apitest.Username, "wrong")
	if !api.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("bad password err = %v", err)
	}
	if msg := api.UserMessage(err, "Invalid credentials"); msg != "Invalid credentials" {
		t.Errorf("message = %q", msg)
	}
}

func TestAuthorizationHeader(t *testing.T) {
	client, srv := newClient(t)

	if _, err := client.ListBatches(context.Background(), srv.Session()); err != nil {
		t.Fatalf("list: %v", err)
	}
	rec, ok := srv.Last(http.MethodGet, "/batches/")
	if !ok {
		t.Fatal("request not recorded")
	}
	if rec.Auth != "Token "+apitest.Token {
		t.Errorf("authorization = %q", rec.Auth)
	}
}

func TestMissingSessionFailsBeforeRequest(t *testing.T) {
	client, srv := newClient(t)

	_, err := client.ListBatches(context.Background(), models.Session{})
	if !errors.Is(err, api.ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
	if n := len(srv.Requests()); n != 0 {
		t.Errorf("%d requests issued without a session", n)
	}
	if msg := api.UserMessage(err, "x"); msg != "Authentication token not found" {
		t.Errorf("message = %q", msg)
	}
}

func TestTransportError(t *testing.T) {
	client, srv := newClient(t)
	sess := srv.Session()
	srv.Close()

	_, err := client.ListBatches(context.Background(), sess)
	var te *api.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %T %v, want TransportError", err, err)
	}
	if msg := api.UserMessage(err, "x"); msg != "Check your connection to the server" {
		t.Errorf("message = %q", msg)
	}
}

func TestStatusErrorDetail(t *testing.T) {
	client, srv := newClient(t)
	srv.Fail(http.MethodDelete, "/batches/5/", http.StatusForbidden)

	err := client.DeleteBatch(context.Background(), srv.Session(), 5)
	var se *api.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v", err)
	}
	if se.Status != http.StatusForbidden || se.Detail != "forced failure 403" {
		t.Fatalf("status error = %+v", se)
	}
	if msg := api.UserMessage(err, "Failed"); msg != "forced failure 403" {
		t.Errorf("message = %q", msg)
	}
}

func TestStatusErrorFields(t *testing.T) {
	client, srv := newClient(t)

	_, err := client.SaveUser(context.Background(), srv.Session(), nil, api.UserPayload{
		Username: apitest.Username,
		FullName: "Dup",
		Email:    "d@example.com",
		Role:     models.RoleUser,
		Password: "pw",
	})
	var se *api.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v", err)
	}
	if !strings.HasPrefix(se.FieldSummary(), "username: ") {
		t.Errorf("field summary = %q", se.FieldSummary())
	}
	msg := api.UserMessage(err, "Failed to create user")
	if !strings.HasPrefix(msg, "Failed to create user:\nusername: ") {
		t.Errorf("message = %q", msg)
	}
}

func TestUploadImagesMultipart(t *testing.T) {
	client, srv := newClient(t)
	sess := srv.Session()
	ctx := context.Background()

	batch, err := client.CreateBatch(ctx, sess, "Trip")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = client.UploadImages(ctx, sess, batch.ID, []api.File{
		{Name: "a.png", ContentType: "image/png", Data: []byte("a")},
		{Name: "b.jpg", ContentType: "image/jpeg", Data: []byte("b")},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	requests := srv.Requests()
	rec := requests[len(requests)-1]
	if rec.ContentType != "multipart/form-data" {
		t.Fatalf("content type = %q", rec.ContentType)
	}
	if got := rec.Files["images"]; len(got) != 2 || got[0] != "a.png" || got[1] != "b.jpg" {
		t.Errorf("files = %v", got)
	}
	if got := rec.FileTypes["images"]; got[0] != "image/png" {
		t.Errorf("file types = %v", got)
	}

	updated, err := client.GetBatch(ctx, sess, batch.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(updated.Images) != 2 {
		t.Errorf("images after upload = %d", len(updated.Images))
	}
}

func TestUserWriteRoute(t *testing.T) {
	if r := api.UserWriteRoute(nil); r.Method != http.MethodPost || r.Path != "/users/" {
		t.Errorf("create route = %+v", r)
	}
	id := int64(12)
	if r := api.UserWriteRoute(&id); r.Method != http.MethodPut || r.Path != "/users/12/" {
		t.Errorf("update route = %+v", r)
	}
}

func TestFetchImageOmitsCredential(t *testing.T) {
	client, srv := newClient(t)
	url := srv.PutFile("x.png", []byte("pixels"))

	data, err := client.FetchImage(context.Background(), url)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != "pixels" {
		t.Errorf("data = %q", data)
	}
	if rec, _ := srv.Last(http.MethodGet, "/files/x.png"); rec.Auth != "" {
		t.Errorf("credential sent to media url: %q", rec.Auth)
	}
}
