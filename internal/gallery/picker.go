package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cyberwithaman/digicon/internal/media/sniffer"
)

var ErrNotImage = errors.New("not an image")

// FilePicker picks images from the local filesystem: the library source is
// an explicit list of paths, the camera source is a capture directory.
type FilePicker struct {
	Paths      []string
	CaptureDir string
}

func (p FilePicker) Permissions(ctx context.Context) (Permissions, error) {
	perms := Permissions{Camera: true, Library: true}
	for _, path := range p.Paths {
		if !readable(path) {
			perms.Library = false
			break
		}
	}
	if p.CaptureDir != "" {
		perms.Camera = readable(p.CaptureDir)
	}
	return perms, nil
}

func (p FilePicker) Pick(ctx context.Context, source Source) ([]Asset, error) {
	paths := p.Paths
	if source == SourceCamera {
		if p.CaptureDir == "" {
			return nil, nil
		}
		entries, err := os.ReadDir(p.CaptureDir)
		if err != nil {
			return nil, fmt.Errorf("read capture dir: %w", err)
		}
		paths = nil
		for _, e := range entries {
			if e.Type().IsRegular() {
				paths = append(paths, filepath.Join(p.CaptureDir, e.Name()))
			}
		}
		sort.Strings(paths)
	}

	assets := make([]Asset, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		asset, err := LoadAsset(path)
		if source == SourceCamera && errors.Is(err, ErrNotImage) {
			continue
		}
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// LoadAsset reads an image file and labels it with its sniffed MIME type.
// Files that do not sniff as an image fail with ErrNotImage. SVG content is
// sanitized before it can be uploaded.
func LoadAsset(path string) (Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Asset{}, fmt.Errorf("read %s: %w", path, err)
	}

	result, err := sniffer.DetectHead(data)
	if err != nil {
		return Asset{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrNotImage)
	}
	mime := result.MIME
	if mime == "image/svg+xml" {
		data, err = sniffer.SanitizeSVG(data)
		if err != nil {
			return Asset{}, fmt.Errorf("%s: %w: %v", filepath.Base(path), ErrNotImage, err)
		}
	}
	return Asset{Name: filepath.Base(path), MIME: mime, Data: data}, nil
}

func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
