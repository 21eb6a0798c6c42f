// Package report renders a batch into a self-contained HTML document and
// hands it to a sharer.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/cyberwithaman/digicon/internal/models"
)

var ErrBatchNotFound = errors.New("batch not found")

// BatchLookup finds a batch in the already fetched collection.
type BatchLookup interface {
	Lookup(id int64) (models.Batch, bool)
}

type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// Sharer hands a finished file to whatever distributes it and returns where
// the user can find it.
type Sharer interface {
	Share(ctx context.Context, path string) (string, error)
}

type Options struct {
	Dir         string
	MaxWidth    uint
	Concurrency int
	Location    *time.Location
}

type Result struct {
	ID       string
	Path     string
	Location string
	Embedded int
	Skipped  int
}

type Exporter struct {
	batches BatchLookup
	fetcher ImageFetcher
	sharer  Sharer
	opts    Options
	log     zerolog.Logger
}

func NewExporter(batches BatchLookup, fetcher ImageFetcher, sharer Sharer, opts Options, log zerolog.Logger) *Exporter {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Exporter{
		batches: batches,
		fetcher: fetcher,
		sharer:  sharer,
		opts:    opts,
		log:     log,
	}
}

// Export builds the report for one batch. A missing batch aborts before any
// file is written; an image that cannot be fetched or encoded is left out.
func (e *Exporter) Export(ctx context.Context, batchID int64) (Result, error) {
	batch, ok := e.batches.Lookup(batchID)
	if !ok {
		return Result{}, fmt.Errorf("export batch %d: %w", batchID, ErrBatchNotFound)
	}

	images := e.embedImages(ctx, batch)

	var buf bytes.Buffer
	if err := render(&buf, newPage(batch, images, e.opts.Location)); err != nil {
		return Result{}, fmt.Errorf("render report: %w", err)
	}

	id := ksuid.New().String()
	path, err := e.write(id, buf.Bytes())
	if err != nil {
		return Result{}, err
	}

	result := Result{
		ID:       id,
		Path:     path,
		Embedded: len(images),
		Skipped:  len(batch.Images) - len(images),
	}

	e.log.Info().
		Int64("batch_id", batchID).
		Str("report_id", id).
		Int("embedded", result.Embedded).
		Int("skipped", result.Skipped).
		Msg("report rendered")

	if e.sharer == nil {
		result.Location = path
		return result, nil
	}

	location, err := e.sharer.Share(ctx, path)
	if err != nil {
		return result, fmt.Errorf("share report: %w", err)
	}
	result.Location = location
	return result, nil
}

func (e *Exporter) embedImages(ctx context.Context, batch models.Batch) []embedded {
	slots := make([]*embedded, len(batch.Images))

	sem := make(chan struct{}, e.opts.Concurrency)
	var wg sync.WaitGroup
	for i, img := range batch.Images {
		if img.URL == "" {
			continue
		}
		wg.Add(1)
		go func(i int, img models.Image) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			src, err := e.embedOne(ctx, img.URL)
			if err != nil {
				e.log.Warn().Err(err).Int64("image_id", img.ID).Msg("image left out of report")
				return
			}
			slots[i] = &embedded{Number: i + 1, Src: src}
		}(i, img)
	}
	wg.Wait()

	out := make([]embedded, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func (e *Exporter) embedOne(ctx context.Context, url string) (template.URL, error) {
	data, err := e.fetcher.FetchImage(ctx, url)
	if err != nil {
		return "", err
	}
	uri, err := encodeImage(data, e.opts.MaxWidth)
	if err != nil {
		return "", err
	}
	return template.URL(uri), nil
}

func (e *Exporter) write(id string, data []byte) (string, error) {
	if err := os.MkdirAll(e.opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(e.opts.Dir, "report-"+id+".html")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalize report: %w", err)
	}
	return path, nil
}
