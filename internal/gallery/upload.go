package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cyberwithaman/digicon/internal/api"
	"github.com/cyberwithaman/digicon/internal/models"
)

type State int

const (
	StateIdle State = iota
	StateSelecting
	StatePreviewing
	StateUploading
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StatePreviewing:
		return "previewing"
	case StateUploading:
		return "uploading"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Source int

const (
	SourceLibrary Source = iota
	SourceCamera
)

var (
	ErrPermissionDenied = errors.New("camera and library permissions are required")
	ErrInvalidState     = errors.New("action not allowed in current upload state")
	ErrUploadInFlight   = errors.New("an upload is in progress")
)

// Asset is one picked image.
type Asset struct {
	Name string
	MIME string
	Data []byte
}

type Permissions struct {
	Camera  bool
	Library bool
}

type Picker interface {
	Permissions(ctx context.Context) (Permissions, error)
	Pick(ctx context.Context, source Source) ([]Asset, error)
}

type ImageUploader interface {
	UploadImages(ctx context.Context, sess models.Session, batchID int64, files []api.File) error
}

// UploadFlow moves Idle → Selecting → Previewing → Uploading → Idle. A failed
// upload returns to Previewing with the selection intact so it can be retried.
type UploadFlow struct {
	mu         sync.Mutex
	state      State
	selection  []Asset
	picker     Picker
	uploader   ImageUploader
	sess       models.Session
	onUploaded func(ctx context.Context) error
	log        zerolog.Logger
}

func NewUploadFlow(picker Picker, uploader ImageUploader, sess models.Session, log zerolog.Logger) *UploadFlow {
	return &UploadFlow{
		picker:   picker,
		uploader: uploader,
		sess:     sess,
		log:      log,
	}
}

// OnUploaded registers the refresh run after every successful upload.
func (u *UploadFlow) OnUploaded(fn func(ctx context.Context) error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onUploaded = fn
}

func (u *UploadFlow) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

func (u *UploadFlow) Selection() []Asset {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Asset(nil), u.selection...)
}

// Select asks for permissions and picks from source. Without both grants, or
// with nothing picked, the flow stays Idle.
func (u *UploadFlow) Select(ctx context.Context, source Source) error {
	u.mu.Lock()
	if u.state != StateIdle {
		state := u.state
		u.mu.Unlock()
		return fmt.Errorf("select: %w (%s)", ErrInvalidState, state)
	}
	u.state = StateSelecting
	u.mu.Unlock()

	assets, err := u.pick(ctx, source)

	u.mu.Lock()
	defer u.mu.Unlock()
	if err != nil || len(assets) == 0 {
		u.state = StateIdle
		u.selection = nil
		return err
	}
	u.selection = assets
	u.state = StatePreviewing
	u.log.Debug().Int("assets", len(assets)).Msg("assets selected")
	return nil
}

func (u *UploadFlow) pick(ctx context.Context, source Source) ([]Asset, error) {
	perms, err := u.picker.Permissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("check permissions: %w", err)
	}
	if !perms.Camera || !perms.Library {
		return nil, ErrPermissionDenied
	}

	assets, err := u.picker.Pick(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("pick images: %w", err)
	}
	return assets, nil
}

// Cancel discards any selection and returns to Idle. It cannot retract an
// upload already sent.
func (u *UploadFlow) Cancel() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == StateUploading {
		return ErrUploadInFlight
	}
	u.selection = nil
	u.state = StateIdle
	return nil
}

// Upload sends the whole selection to one batch in a single request.
func (u *UploadFlow) Upload(ctx context.Context, batchID int64) error {
	u.mu.Lock()
	if u.state != StatePreviewing {
		state := u.state
		u.mu.Unlock()
		return fmt.Errorf("upload: %w (%s)", ErrInvalidState, state)
	}
	u.state = StateUploading
	files := make([]api.File, 0, len(u.selection))
	for _, a := range u.selection {
		files = append(files, api.File{Name: a.Name, ContentType: a.MIME, Data: a.Data})
	}
	refresh := u.onUploaded
	u.mu.Unlock()

	err := u.uploader.UploadImages(ctx, u.sess, batchID, files)

	u.mu.Lock()
	if err != nil {
		u.state = StatePreviewing
		u.mu.Unlock()
		u.log.Warn().Err(err).Int64("batch_id", batchID).Msg("upload failed")
		return fmt.Errorf("upload images: %w", err)
	}
	u.selection = nil
	u.state = StateIdle
	u.mu.Unlock()

	u.log.Info().Int64("batch_id", batchID).Int("images", len(files)).Msg("images uploaded")

	if refresh != nil {
		if err := refresh(ctx); err != nil {
			u.log.Warn().Err(err).Msg("refresh after upload failed")
		}
	}
	return nil
}
