package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type Owner struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type Batch struct {
	ID         int64      `json:"id"`
	ReferralID *string    `json:"referral_id"`
	Title      *string    `json:"title"`
	CreatedAt  *time.Time `json:"created_at"`
	Owner      *Owner     `json:"owner"`
	Images     []Image    `json:"images"`
}

func (b *Batch) UnmarshalJSON(data []byte) error {
	type alias Batch
	var raw struct {
		alias
		ID *int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode batch: %w", err)
	}
	if raw.ID == nil {
		return fmt.Errorf("decode batch: %w: id", ErrMissingField)
	}

	*b = Batch(raw.alias)
	b.ID = *raw.ID
	return nil
}

func (b Batch) TitleOr(fallback string) string {
	if b.Title == nil || *b.Title == "" {
		return fallback
	}
	return *b.Title
}

func (b Batch) ReferralOr(fallback string) string {
	if b.ReferralID == nil || *b.ReferralID == "" {
		return fallback
	}
	return *b.ReferralID
}

func (b Batch) OwnerName() string {
	if b.Owner == nil || b.Owner.Username == "" {
		return "Unknown"
	}
	return b.Owner.Username
}

// Image is a media file inside a batch. The API names the address either
// url or file_url depending on the endpoint.
type Image struct {
	ID      int64  `json:"id"`
	URL     string `json:"url,omitempty"`
	BatchID *int64 `json:"batch,omitempty"`
}

func (i *Image) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      *int64  `json:"id"`
		URL     *string `json:"url"`
		FileURL *string `json:"file_url"`
		File    *string `json:"file"`
		Batch   *int64  `json:"batch"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if raw.ID == nil {
		return fmt.Errorf("decode image: %w: id", ErrMissingField)
	}

	*i = Image{ID: *raw.ID, BatchID: raw.Batch}
	for _, candidate := range []*string{raw.URL, raw.FileURL, raw.File} {
		if candidate != nil && *candidate != "" {
			i.URL = *candidate
			break
		}
	}
	return nil
}
