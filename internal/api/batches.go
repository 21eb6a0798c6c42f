package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cyberwithaman/digicon/internal/models"
)

func (c *Client) ListBatches(ctx context.Context, sess models.Session) ([]models.Batch, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/batches/", session: &sess}, &raw); err != nil {
		return nil, err
	}
	batches, err := decodeList[models.Batch](raw)
	if err != nil {
		return nil, fmt.Errorf("decode batches: %w", err)
	}
	return batches, nil
}

func (c *Client) GetBatch(ctx context.Context, sess models.Session, id int64) (models.Batch, error) {
	var batch models.Batch
	err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    fmt.Sprintf("/batches/%d/", id),
		session: &sess,
	}, &batch)
	return batch, err
}

type createBatchRequest struct {
	Title string `json:"title"`
}

func (c *Client) CreateBatch(ctx context.Context, sess models.Session, title string) (models.Batch, error) {
	body, err := jsonBody(createBatchRequest{Title: title})
	if err != nil {
		return models.Batch{}, err
	}

	var batch models.Batch
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/batches/",
		session:     &sess,
		body:        body,
		contentType: "application/json",
	}, &batch)
	return batch, err
}

func (c *Client) DeleteBatch(ctx context.Context, sess models.Session, id int64) error {
	return c.do(ctx, request{
		method:  http.MethodDelete,
		path:    fmt.Sprintf("/batches/%d/", id),
		session: &sess,
	}, nil)
}

// UploadImages sends every file as an "images" part of one multipart request.
func (c *Client) UploadImages(ctx context.Context, sess models.Session, batchID int64, files []File) error {
	if len(files) == 0 {
		return fmt.Errorf("upload images: no files")
	}
	if !sess.Authenticated() {
		return ErrNotAuthenticated
	}

	body, contentType, err := multipartBody(nil, "images", files)
	if err != nil {
		return err
	}

	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        fmt.Sprintf("/batches/%d/images/", batchID),
		session:     &sess,
		body:        body,
		contentType: contentType,
	}, nil)
}

func (c *Client) DeleteImage(ctx context.Context, sess models.Session, id int64) error {
	return c.do(ctx, request{
		method:  http.MethodDelete,
		path:    fmt.Sprintf("/media/%d/", id),
		session: &sess,
	}, nil)
}

// FetchImage downloads raw image bytes from an absolute media URL. Media
// URLs are public, so no credential is attached.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	if err := c.do(ctx, request{method: http.MethodGet, path: url}, &data); err != nil {
		return nil, err
	}
	return data, nil
}
