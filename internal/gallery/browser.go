package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cyberwithaman/digicon/internal/models"
)

var (
	ErrTitleRequired = errors.New("please enter a batch title")
	ErrForbidden     = errors.New("only administrators can delete batches")
)

// BatchAPI is the slice of the REST client the gallery needs.
type BatchAPI interface {
	ListBatches(ctx context.Context, sess models.Session) ([]models.Batch, error)
	GetBatch(ctx context.Context, sess models.Session, id int64) (models.Batch, error)
	CreateBatch(ctx context.Context, sess models.Session, title string) (models.Batch, error)
	DeleteBatch(ctx context.Context, sess models.Session, id int64) error
	DeleteImage(ctx context.Context, sess models.Session, id int64) error
}

// Browser wires the REST calls of the batch screen to a Filter. Every write
// is followed by a wholesale re-fetch; nothing is updated optimistically.
type Browser struct {
	api    BatchAPI
	sess   models.Session
	filter *Filter
	log    zerolog.Logger
}

func NewBrowser(api BatchAPI, sess models.Session, filter *Filter, log zerolog.Logger) *Browser {
	if filter == nil {
		filter = NewFilter()
	}
	return &Browser{api: api, sess: sess, filter: filter, log: log}
}

func (b *Browser) Filter() *Filter {
	return b.filter
}

// Refresh fetches the batch collection and hands it to the filter. On
// failure the previous collection stays in place.
func (b *Browser) Refresh(ctx context.Context) error {
	batches, err := b.api.ListBatches(ctx, b.sess)
	if err != nil {
		return fmt.Errorf("fetch batches: %w", err)
	}
	b.filter.Refresh(batches)
	b.log.Debug().Int("batches", len(batches)).Msg("batches refreshed")
	return nil
}

func (b *Browser) Batch(ctx context.Context, id int64) (models.Batch, error) {
	return b.api.GetBatch(ctx, b.sess, id)
}

func (b *Browser) CreateBatch(ctx context.Context, title string) (models.Batch, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Batch{}, ErrTitleRequired
	}

	batch, err := b.api.CreateBatch(ctx, b.sess, title)
	if err != nil {
		return models.Batch{}, fmt.Errorf("create batch: %w", err)
	}
	b.log.Info().Int64("batch_id", batch.ID).Msg("batch created")
	return batch, b.Refresh(ctx)
}

// DeleteBatch is limited to sessions flagged admin at login.
func (b *Browser) DeleteBatch(ctx context.Context, id int64) error {
	if !b.sess.Role().CanDeleteBatches() {
		return ErrForbidden
	}
	if err := b.api.DeleteBatch(ctx, b.sess, id); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	b.log.Info().Int64("batch_id", id).Msg("batch deleted")
	return b.Refresh(ctx)
}

func (b *Browser) DeleteImage(ctx context.Context, id int64) error {
	if err := b.api.DeleteImage(ctx, b.sess, id); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	b.log.Info().Int64("image_id", id).Msg("image deleted")
	return b.Refresh(ctx)
}
