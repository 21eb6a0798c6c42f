package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cyberwithaman/digicon/internal/api/apitest"
	"github.com/cyberwithaman/digicon/internal/models"
)

type env struct {
	srv    *apitest.Server
	dir    string
	config string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := fmt.Sprintf(`environment: development
api:
  baseurl: %s
session:
  backend: file
  path: %s
report:
  dir: %s
share:
  mode: file
  dir: %s
`, srv.URL, filepath.Join(dir, "session.json"), filepath.Join(dir, "reports"), filepath.Join(dir, "shared"))

	path := filepath.Join(dir, "digicon.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return &env{srv: srv, dir: dir, config: path}
}

func (e *env) run(stdin string, args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	args = append([]string{"--config", e.config}, args...)
	code := Execute(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func (e *env) login(t *testing.T) {
	t.Helper()
	code, out, errOut := e.run("", "login", "-u", apitest.Username, "-p", apitest.Password)
	if code != 0 {
		t.Fatalf("login exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Logged in as amy (admin)") {
		t.Fatalf("login output = %q", out)
	}
}

func TestNotLoggedIn(t *testing.T) {
	e := newEnv(t)
	code, _, errOut := e.run("", "batches", "list")
	if code != 1 || !strings.Contains(errOut, "Not logged in") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if n := len(e.srv.Requests()); n != 0 {
		t.Errorf("%d requests without a session", n)
	}
}

func TestLoginPromptsAndRejects(t *testing.T) {
	e := newEnv(t)
	code, _, errOut := e.run("amy\nwrong\n", "login")
	if code != 1 || !strings.Contains(errOut, "Invalid credentials") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}

	code, out, _ := e.run("amy\nsecret\n", "login")
	if code != 0 || !strings.Contains(out, "Logged in") {
		t.Fatalf("prompted login exit %d: %q", code, out)
	}
}

func TestBatchesFlow(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	code, out, errOut := e.run("", "batches", "create", "Harbour", "survey")
	if code != 0 || !strings.Contains(out, "Created batch") {
		t.Fatalf("create exit %d: %q %q", code, out, errOut)
	}

	_, out, _ = e.run("", "batches", "list")
	if !strings.Contains(out, "Harbour survey") || !strings.Contains(out, "REF-ID-") {
		t.Errorf("list = %q", out)
	}

	_, out, _ = e.run("", "batches", "list", "-q", "HARBOUR")
	if !strings.Contains(out, "Harbour survey") {
		t.Errorf("query list = %q", out)
	}

	_, out, _ = e.run("", "batches", "list", "--query", "nothing-like-this")
	if !strings.Contains(out, "No batches found") {
		t.Errorf("empty list = %q", out)
	}

	code, _, errOut = e.run("", "batches", "list", "--date", "2024-13-01")
	if code != 1 || errOut == "" {
		t.Errorf("bad date exit %d", code)
	}

	code, _, errOut = e.run("", "batches", "create", " ")
	if code != 1 || !strings.Contains(errOut, "please enter a batch title") {
		t.Errorf("blank title exit %d: %q", code, errOut)
	}
}

func TestBatchDeleteConfirmation(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	e.srv.SetBatches([]models.Batch{{ID: 5}})

	_, out, _ := e.run("n\n", "batches", "delete", "5")
	if !strings.Contains(out, "Cancelled") {
		t.Errorf("declined output = %q", out)
	}
	if _, ok := e.srv.Last(http.MethodDelete, "/batches/5/"); ok {
		t.Fatal("delete sent after decline")
	}

	code, out, _ := e.run("", "--yes", "batches", "delete", "5")
	if code != 0 || !strings.Contains(out, "Deleted batch 5") {
		t.Fatalf("delete exit %d: %q", code, out)
	}
	if len(e.srv.Batches()) != 0 {
		t.Error("batch still present")
	}
}

func TestUploadFlow(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	e.srv.SetBatches([]models.Batch{{ID: 3}})

	photo := filepath.Join(e.dir, "one.png")
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}
	if err := os.WriteFile(photo, png, 0o600); err != nil {
		t.Fatal(err)
	}

	_, out, _ := e.run("no\n", "upload", "3", photo)
	if !strings.Contains(out, "Upload cancelled") {
		t.Errorf("declined upload = %q", out)
	}
	if _, ok := e.srv.Last(http.MethodPost, "/batches/3/images/"); ok {
		t.Fatal("upload sent after decline")
	}

	code, out, errOut := e.run("y\n", "upload", "3", photo)
	if code != 0 || !strings.Contains(out, "Uploaded 1 image(s) to batch 3") {
		t.Fatalf("upload exit %d: %q %q", code, out, errOut)
	}
	rec, _ := e.srv.Last(http.MethodPost, "/batches/3/images/")
	if got := rec.FileTypes["images"]; len(got) != 1 || got[0] != "image/png" {
		t.Errorf("uploaded types = %v", got)
	}
}

func TestReportExport(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	title := "Pier"
	url := e.srv.PutFile("a.png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	e.srv.SetBatches([]models.Batch{{ID: 9, Title: &title, Images: []models.Image{{ID: 1, URL: url}}}})

	code, out, errOut := e.run("", "report", "export", "9")
	if code != 0 {
		t.Fatalf("export exit %d: %s", code, errOut)
	}
	loc := strings.TrimSpace(strings.TrimPrefix(out, "Report ready:"))
	if filepath.Dir(loc) != filepath.Join(e.dir, "shared") {
		t.Fatalf("location = %q", loc)
	}
	doc, err := os.ReadFile(loc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(doc), "Pier") || !strings.Contains(string(doc), "data:image/png;base64,") {
		t.Errorf("report body lacks title or image")
	}

	code, _, errOut = e.run("", "report", "export", "404")
	if code != 1 || !strings.Contains(errOut, "batch not found") {
		t.Errorf("unknown batch exit %d: %q", code, errOut)
	}
}

func TestReportSheet(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	e.srv.SetBatches([]models.Batch{{ID: 1}, {ID: 2}})

	path := filepath.Join(e.dir, "out.xlsx")
	code, out, errOut := e.run("", "report", "sheet", path)
	if code != 0 || !strings.Contains(out, "Wrote 2 batch(es)") {
		t.Fatalf("sheet exit %d: %q %q", code, out, errOut)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}

func TestUsersCommands(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	code, out, errOut := e.run("", "users", "create",
		"--username", "carol", "--full-name", "Carol", "--email", "c@x", "--password", "pw", "--role", "editor")
	if code != 0 || !strings.Contains(out, "Created user carol") {
		t.Fatalf("create exit %d: %q %q", code, out, errOut)
	}

	code, _, errOut = e.run("", "users", "create", "--username", "dave")
	if code != 1 || !strings.Contains(errOut, "Please fill in all required fields: Full Name, Email, Password") {
		t.Errorf("incomplete create exit %d: %q", code, errOut)
	}

	_, out, _ = e.run("", "users", "list")
	if !strings.Contains(out, "carol") || !strings.Contains(out, "editor") {
		t.Errorf("list = %q", out)
	}

	_, out, _ = e.run("", "--yes", "users", "reset-password", "1")
	if !strings.Contains(out, "TempPassword123!") {
		t.Errorf("reset output = %q", out)
	}

	_, out, _ = e.run("\n", "users", "delete", "1")
	if !strings.Contains(out, "Cancelled") {
		t.Errorf("declined delete = %q", out)
	}
	if _, ok := e.srv.Last(http.MethodDelete, "/users/1/"); ok {
		t.Error("delete sent after decline")
	}
}

func TestUsersForbiddenForNonAdmin(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	e.srv.SetUsers([]models.User{{ID: 1, Username: apitest.Username, Role: models.RoleViewer}})

	code, _, errOut := e.run("", "users", "list")
	if code != 1 || !strings.Contains(errOut, "permission") {
		t.Fatalf("exit %d: %q", code, errOut)
	}
}

func TestProfileAndLogout(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	_, out, _ := e.run("", "profile", "show")
	if !strings.Contains(out, "amy@example.com") {
		t.Errorf("profile = %q", out)
	}

	code, _, errOut := e.run("", "profile", "password", "--new", "a", "--confirm", "b")
	if code != 1 || !strings.Contains(errOut, "passwords do not match") {
		t.Errorf("mismatch exit %d: %q", code, errOut)
	}

	e.srv.Fail(http.MethodPost, "/auth/logout/", http.StatusBadGateway)
	if code, out, _ := e.run("", "logout"); code != 0 || !strings.Contains(out, "Logged out") {
		t.Fatalf("logout exit %d: %q", code, out)
	}
	if code, _, _ := e.run("", "profile", "show"); code != 1 {
		t.Error("profile available after logout")
	}
}

func uploads(srv *apitest.Server, path string) int {
	n := 0
	for _, r := range srv.Requests() {
		if r.Method == http.MethodPost && r.Path == path {
			n++
		}
	}
	return n
}

func TestUploadRetryKeepsSelection(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	e.srv.SetBatches([]models.Batch{{ID: 3}})

	photo := filepath.Join(e.dir, "one.png")
	if err := os.WriteFile(photo, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}, 0o600); err != nil {
		t.Fatal(err)
	}

	e.srv.FailOnce(http.MethodPost, "/batches/3/images/", http.StatusServiceUnavailable)
	code, out, errOut := e.run("y\ny\n", "upload", "3", photo)
	if code != 0 {
		t.Fatalf("upload exit %d: %q %q", code, out, errOut)
	}
	if !strings.Contains(out, "Upload failed") || !strings.Contains(out, "Uploaded 1 image(s) to batch 3") {
		t.Errorf("output = %q", out)
	}
	if n := uploads(e.srv, "/batches/3/images/"); n != 2 {
		t.Errorf("upload requests = %d, want 2", n)
	}
	rec, _ := e.srv.Last(http.MethodPost, "/batches/3/images/")
	if got := rec.Files["images"]; len(got) != 1 || got[0] != "one.png" {
		t.Errorf("retried files = %v", got)
	}

	e.srv.FailOnce(http.MethodPost, "/batches/3/images/", http.StatusServiceUnavailable)
	code, _, _ = e.run("y\nn\n", "upload", "3", photo)
	if code != 1 {
		t.Errorf("declined retry exit = %d", code)
	}
	if n := uploads(e.srv, "/batches/3/images/"); n != 3 {
		t.Errorf("upload requests after declined retry = %d, want 3", n)
	}
}

func TestSharePurge(t *testing.T) {
	e := newEnv(t)
	past := time.Now().Add(-30 * 24 * time.Hour)

	var old []string
	for _, dir := range []string{"reports", "shared"} {
		dir = filepath.Join(e.dir, dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"report-old.html", "keep.txt"} {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
			if err := os.Chtimes(path, past, past); err != nil {
				t.Fatal(err)
			}
		}
		old = append(old, filepath.Join(dir, "report-old.html"))
	}

	code, out, errOut := e.run("", "share", "purge")
	if code != 0 || !strings.Contains(out, "Removed 2 report(s)") {
		t.Fatalf("purge exit %d: %q %q", code, out, errOut)
	}
	for _, path := range old {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s kept", path)
		}
	}
	if _, err := os.Stat(filepath.Join(e.dir, "shared", "keep.txt")); err != nil {
		t.Error("non-report file removed")
	}
}
