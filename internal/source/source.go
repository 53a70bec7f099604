// Package source validates and loads the image a meme is composited from.
// Images come from http(s) URLs, base64 data URIs or local files.
package source

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	// ErrURLTooShort is returned for input of five characters or fewer. Such
	// input is treated as still being typed, not as a mistake.
	ErrURLTooShort = errors.New("image URL too short")
	// ErrInvalidURL is returned when the input is neither a web address nor
	// an image data URI.
	ErrInvalidURL = errors.New("URL is not correct")
	// ErrUnsupportedScheme is returned for addresses that validate but
	// cannot be fetched, such as ftp.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// minURLLength is the shortest input that is validated at all.
const minURLLength = 6

var (
	webURLPattern  = regexp.MustCompile(`^((https?|ftp):)?(//)?((www|m)\.)?((\w+\.)+\w+)`)
	dataURIPattern = regexp.MustCompile(`^data:image/(png|jpg|jpeg);base64,`)
)

// Kind is the transport a Location is loaded through.
type Kind int

const (
	// KindHTTP is an http or https URL.
	KindHTTP Kind = iota
	// KindData is a base64 data URI.
	KindData
	// KindFile is a local file.
	KindFile
	// KindFTP validates but is not loadable.
	KindFTP
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindData:
		return "data"
	case KindFile:
		return "file"
	case KindFTP:
		return "ftp"
	default:
		return "unknown"
	}
}

// Location is a validated image address.
type Location struct {
	Kind Kind
	// URL is the normalized address: a full http(s) URL, the data URI, or
	// the file path.
	URL string
	// Raw is the input as given.
	Raw string
}

// Validate reports whether raw is acceptable as an image address, using the
// same rules as the web form: a web URL with an optional http, https or
// ftp scheme, or a png/jpeg data URI.
func Validate(raw string) error {
	raw = strings.TrimSpace(raw)
	if len(raw) < minURLLength {
		return ErrURLTooShort
	}
	if webURLPattern.MatchString(raw) || dataURIPattern.MatchString(raw) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidURL, truncate(raw, 64))
}

// Resolve validates raw and classifies it. Local files are accepted as a
// "file://" URL or as the path of an existing file; the web-address rule
// does not apply to them. Scheme-less web addresses are fetched over https.
func Resolve(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	loc := Location{Raw: raw}

	if path, ok := strings.CutPrefix(raw, "file://"); ok && path != "" {
		loc.Kind, loc.URL = KindFile, path
		return loc, nil
	}
	if isLocalFile(raw) {
		loc.Kind, loc.URL = KindFile, raw
		return loc, nil
	}
	if err := Validate(raw); err != nil {
		return loc, err
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "data:"):
		loc.Kind, loc.URL = KindData, raw
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		loc.Kind, loc.URL = KindHTTP, raw
	case strings.HasPrefix(lower, "http:"), strings.HasPrefix(lower, "https:"):
		// "http:example.com" has a scheme but no authority marker.
		scheme, rest, _ := strings.Cut(raw, ":")
		loc.Kind, loc.URL = KindHTTP, scheme+"://"+rest
	case strings.HasPrefix(lower, "ftp:"):
		loc.Kind, loc.URL = KindFTP, raw
	case strings.HasPrefix(raw, "//"):
		loc.Kind, loc.URL = KindHTTP, "https:"+raw
	default:
		loc.Kind, loc.URL = KindHTTP, "https://"+raw
	}
	return loc, nil
}

func isLocalFile(path string) bool {
	if strings.Contains(path, "://") || strings.HasPrefix(path, "data:") {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
