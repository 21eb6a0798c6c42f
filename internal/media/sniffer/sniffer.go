// Package sniffer identifies image formats from their leading bytes.
package sniffer

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
)

type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeGIF  MediaType = "gif"
	TypeWEBP MediaType = "webp"
	TypeAVIF MediaType = "avif"
	TypeHEIC MediaType = "heic"
	TypeSVG  MediaType = "svg"
)

// FallbackMIME is assumed for content nothing below recognises.
const FallbackMIME = "image/jpeg"

var ErrUnknownType = errors.New("unknown media type")

type Result struct {
	Type MediaType
	MIME string
}

func (r Result) Extension() string {
	if r.Type == TypeJPEG {
		return "jpg"
	}
	return string(r.Type)
}

type signature struct {
	result Result
	match  func(head []byte) bool
}

var signatures = []signature{
	{Result{TypeJPEG, "image/jpeg"}, func(h []byte) bool {
		return len(h) > 3 && h[0] == 0xff && h[1] == 0xd8 && h[2] == 0xff
	}},
	{Result{TypePNG, "image/png"}, func(h []byte) bool {
		return bytes.HasPrefix(h, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	}},
	{Result{TypeGIF, "image/gif"}, func(h []byte) bool {
		return bytes.HasPrefix(h, []byte("GIF87a")) || bytes.HasPrefix(h, []byte("GIF89a"))
	}},
	{Result{TypeWEBP, "image/webp"}, func(h []byte) bool {
		return len(h) >= 12 && bytes.Equal(h[:4], []byte("RIFF")) && bytes.Equal(h[8:12], []byte("WEBP"))
	}},
	{Result{TypeAVIF, "image/avif"}, func(h []byte) bool { return isFtyp(h, "avif") }},
	{Result{TypeHEIC, "image/heic"}, func(h []byte) bool { return isFtyp(h, "heic") || isFtyp(h, "heix") || isFtyp(h, "mif1") }},
	{Result{TypeSVG, "image/svg+xml"}, func(h []byte) bool {
		trimmed := strings.TrimSpace(string(h))
		return strings.HasPrefix(trimmed, "<svg") || strings.HasPrefix(trimmed, "<?xml")
	}},
}

func isFtyp(head []byte, brand string) bool {
	return len(head) >= 12 && string(head[4:8]) == "ftyp" && bytes.Contains(head[8:], []byte(brand))
}

// DetectHead inspects at most the first 512 bytes.
func DetectHead(head []byte) (Result, error) {
	if len(head) > 512 {
		head = head[:512]
	}
	if len(head) == 0 {
		return Result{}, ErrUnknownType
	}
	for _, sig := range signatures {
		if sig.match(head) {
			return sig.result, nil
		}
	}
	return Result{}, ErrUnknownType
}

// MIMEOf returns the sniffed MIME type, falling back to image/jpeg.
func MIMEOf(data []byte) string {
	result, err := DetectHead(data)
	if err != nil {
		return FallbackMIME
	}
	return result.MIME
}

var (
	scriptTagPattern = regexp.MustCompile(`(?is)<\s*script[\s>].*?<\s*/\s*script\s*>`)
	eventAttrPattern = regexp.MustCompile(`(?is)\son[a-z]+\s*=\s*"[^"]*"`)
)

// SanitizeSVG strips script elements and inline event handlers.
func SanitizeSVG(input []byte) ([]byte, error) {
	if !bytes.Contains(bytes.ToLower(input), []byte("<svg")) {
		return nil, errors.New("not an svg document")
	}
	clean := scriptTagPattern.ReplaceAll(input, nil)
	return eventAttrPattern.ReplaceAll(clean, nil), nil
}
