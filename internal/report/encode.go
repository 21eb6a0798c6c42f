package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"github.com/nfnt/resize"

	"github.com/cyberwithaman/digicon/internal/media/sniffer"
)

// encodeImage turns raw image bytes into a data URI. Raster images wider
// than maxWidth are scaled down first; formats the standard decoders cannot
// read are embedded as-is.
func encodeImage(data []byte, maxWidth uint) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image")
	}

	mime := sniffer.MIMEOf(data)
	if maxWidth > 0 {
		if scaled, scaledMIME, ok := downscale(data, mime, maxWidth); ok {
			data, mime = scaled, scaledMIME
		}
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func downscale(data []byte, mime string, maxWidth uint) ([]byte, string, bool) {
	switch mime {
	case "image/jpeg", "image/png", "image/gif":
	default:
		return nil, "", false
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || uint(cfg.Width) <= maxWidth {
		return nil, "", false
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", false
	}
	thumb := resize.Resize(maxWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if mime == "image/png" {
		if err := png.Encode(&buf, thumb); err != nil {
			return nil, "", false
		}
		return buf.Bytes(), "image/png", true
	}
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", false
	}
	return buf.Bytes(), "image/jpeg", true
}
