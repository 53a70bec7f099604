package source

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedFormat is returned for content that is not a decodable image.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrEmptyContent is returned when the source yielded no bytes.
	ErrEmptyContent = errors.New("empty image content")
)

// decodable lists the sniffed extensions that have a registered decoder.
var decodable = map[string]bool{
	"png":  true,
	"jpg":  true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
	"tif":  true,
}

// Sniff returns the extension and MIME type of an image by its magic bytes.
func Sniff(data []byte) (ext, mime string, err error) {
	if len(data) == 0 {
		return "", "", ErrEmptyContent
	}
	kind, err := filetype.Image(data)
	if err != nil || kind == filetype.Unknown {
		return "", "", ErrUnsupportedFormat
	}
	if !decodable[kind.Extension] {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind.MIME.Value)
	}
	return kind.Extension, kind.MIME.Value, nil
}

// Decode sniffs and decodes an image. The returned format is the decoder
// name reported by the image package, e.g. "png" or "jpeg".
func Decode(data []byte) (image.Image, string, error) {
	if _, _, err := Sniff(data); err != nil {
		return nil, "", err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", fmt.Errorf("decode image: %w", ErrEmptyContent)
	}
	return img, format, nil
}

// DecodeDataURI returns the payload of a base64 image data URI.
func DecodeDataURI(uri string) ([]byte, error) {
	if !dataURIPattern.MatchString(uri) {
		return nil, fmt.Errorf("%w: not an image data URI", ErrInvalidURL)
	}
	_, payload, _ := strings.Cut(uri, ",")
	payload = strings.TrimSpace(payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some encoders drop the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("decode data URI: %w", err)
		}
	}
	return data, nil
}

// EncodeDataURI builds an image data URI for data with the given MIME type.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
