package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/cyberwithaman/digicon/internal/models"
)

type lookup map[int64]models.Batch

func (l lookup) Lookup(id int64) (models.Batch, bool) {
	b, ok := l[id]
	return b, ok
}

type fetcher struct {
	mu    sync.Mutex
	files map[string][]byte
	calls []string
}

func (f *fetcher) FetchImage(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	data, ok := f.files[url]
	if !ok {
		return nil, errors.New("404")
	}
	return data, nil
}

type recordingSharer struct {
	paths []string
}

func (s *recordingSharer) Share(_ context.Context, path string) (string, error) {
	s.paths = append(s.paths, path)
	return "shared:" + filepath.Base(path), nil
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func strp(s string) *string { return &s }

func TestExportEmbedsImages(t *testing.T) {
	created := time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)
	batch := models.Batch{
		ID:         7,
		ReferralID: strp("REF-ID-000007"),
		Title:      strp("Trip <north>"),
		CreatedAt:  &created,
		Owner:      &models.Owner{ID: 1, Username: "amy"},
		Images: []models.Image{
			{ID: 1, URL: "http://x/1.png"},
			{ID: 2, URL: "http://x/missing.png"},
			{ID: 3, URL: "http://x/3.png"},
		},
	}
	f := &fetcher{files: map[string][]byte{
		"http://x/1.png": pngOf(t, 40, 20),
		"http://x/3.png": pngOf(t, 8, 8),
	}}
	sharer := &recordingSharer{}
	dir := t.TempDir()

	exp := NewExporter(lookup{7: batch}, f, sharer, Options{
		Dir:         dir,
		MaxWidth:    10,
		Concurrency: 2,
		Location:    time.UTC,
	}, zerolog.Nop())

	res, err := exp.Export(context.Background(), 7)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Embedded != 2 || res.Skipped != 1 {
		t.Errorf("embedded/skipped = %d/%d", res.Embedded, res.Skipped)
	}
	if filepath.Dir(res.Path) != dir || !strings.HasPrefix(filepath.Base(res.Path), "report-") {
		t.Errorf("path = %q", res.Path)
	}
	if len(sharer.paths) != 1 || sharer.paths[0] != res.Path {
		t.Errorf("shared paths = %v", sharer.paths)
	}
	if res.Location != "shared:"+filepath.Base(res.Path) {
		t.Errorf("location = %q", res.Location)
	}

	raw, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(raw)
	for _, want := range []string{
		"<h1>Batch Report</h1>",
		"REF-ID-000007",
		"Trip &lt;north&gt;",
		"2024-01-05 10:30:00 UTC",
		"amy",
		"<span class=\"label\">Total Images:</span> 3",
		"Image 1",
		"Image 3",
		`src="data:image/png;base64,`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(doc, "Image 2") {
		t.Error("failed image rendered")
	}
	if strings.Contains(doc, "ZgotmplZ") {
		t.Error("data uri was filtered by the template")
	}
}

func TestExportEmptyBatch(t *testing.T) {
	exp := NewExporter(lookup{1: {ID: 1}}, &fetcher{}, nil, Options{Dir: t.TempDir()}, zerolog.Nop())

	res, err := exp.Export(context.Background(), 1)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Location != res.Path {
		t.Errorf("location without sharer = %q", res.Location)
	}
	raw, _ := os.ReadFile(res.Path)
	doc := string(raw)
	for _, want := range []string{"No images in this batch", "Owner:</span> Unknown", "Title:</span> N/A"} {
		if !strings.Contains(doc, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestExportUnknownBatchWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	sharer := &recordingSharer{}
	exp := NewExporter(lookup{}, &fetcher{}, sharer, Options{Dir: dir}, zerolog.Nop())

	_, err := exp.Export(context.Background(), 99)
	if !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("report dir created for unknown batch: %v", err)
	}
	if len(sharer.paths) != 0 {
		t.Error("sharer called for unknown batch")
	}
}

func TestEncodeImageDownscales(t *testing.T) {
	uri, err := encodeImage(pngOf(t, 64, 32), 16)
	if err != nil {
		t.Fatal(err)
	}
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("uri = %.40s", uri)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 16 || cfg.Height != 8 {
		t.Errorf("scaled to %dx%d", cfg.Width, cfg.Height)
	}

	if _, err := encodeImage(nil, 16); err == nil {
		t.Error("empty image accepted")
	}
}

func TestEncodeImageKeepsUnknownBytes(t *testing.T) {
	uri, err := encodeImage([]byte("not an image"), 16)
	if err != nil {
		t.Fatal(err)
	}
	want := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("not an image"))
	if uri != want {
		t.Errorf("uri = %q", uri)
	}
}

func TestWriteSheet(t *testing.T) {
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	batches := []models.Batch{
		{ID: 1, ReferralID: strp("REF-1"), Title: strp("Trip"), CreatedAt: &created, Owner: &models.Owner{Username: "amy"}, Images: make([]models.Image, 2)},
		{ID: 2},
	}
	path := filepath.Join(t.TempDir(), "out", "batches.xlsx")
	if err := WriteSheet(path, batches, time.UTC); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if list := f.GetSheetList(); len(list) != 1 || list[0] != sheetName {
		t.Fatalf("sheets = %v", list)
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "ID,Batch ID,Title,Created,Owner,Images" {
		t.Errorf("header = %v", rows[0])
	}
	if strings.Join(rows[1], ",") != "1,REF-1,Trip,2024-03-01 08:00,amy,2" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][0] != "2" || rows[2][4] != "Unknown" {
		t.Errorf("row 2 = %v", rows[2])
	}
}
