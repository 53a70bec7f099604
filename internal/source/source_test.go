package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"https", "https://picsum.photos/536/354", nil},
		{"http www", "http://www.example.com/a.png", nil},
		{"mobile host", "m.example.org/img", nil},
		{"no scheme", "picsum.photos/536/354", nil},
		{"protocol relative", "//i.imgur.com/abc.jpg", nil},
		{"ftp", "ftp://files.example.com/a.png", nil},
		{"data png", "data:image/png;base64,iVBORw0KGgo=", nil},
		{"data jpeg", "data:image/jpeg;base64,/9j/4AAQ", nil},
		{"data jpg", "data:image/jpg;base64,/9j/4AAQ", nil},
		{"five characters", "a.b.c", ErrURLTooShort},
		{"empty", "", ErrURLTooShort},
		{"whitespace only", "          ", ErrURLTooShort},
		{"no dot", "localhost/image", ErrInvalidURL},
		{"other scheme", "gopher://example.com", ErrInvalidURL},
		{"data gif", "data:image/gif;base64,R0lGOD", ErrInvalidURL},
		{"data svg", "data:image/svg+xml;base64,PHN2", ErrInvalidURL},
		{"sentence", "not a url at all", ErrInvalidURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate(%q) = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "cat.png")
	if err := os.WriteFile(local, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		input    string
		wantKind Kind
		wantURL  string
		wantErr  error
	}{
		{"https", "https://picsum.photos/536/354", KindHTTP, "https://picsum.photos/536/354", nil},
		{"http", "http://example.com/a.png", KindHTTP, "http://example.com/a.png", nil},
		{"scheme without slashes", "http:example.com/a.png", KindHTTP, "http://example.com/a.png", nil},
		{"protocol relative", "//example.com/a.png", KindHTTP, "https://example.com/a.png", nil},
		{"bare host", "picsum.photos/536/354", KindHTTP, "https://picsum.photos/536/354", nil},
		{"trimmed", "  example.com/a.png \n", KindHTTP, "https://example.com/a.png", nil},
		{"ftp", "ftp://example.com/a.png", KindFTP, "ftp://example.com/a.png", nil},
		{"data", "data:image/png;base64,AAAA", KindData, "data:image/png;base64,AAAA", nil},
		{"local path", local, KindFile, local, nil},
		{"file url", "file://" + local, KindFile, local, nil},
		{"missing local path", filepath.Join(dir, "missing", "x.png"), 0, "", ErrInvalidURL},
		{"directory", dir + "/", 0, "", ErrInvalidURL},
		{"too short", "x.io", 0, "", ErrURLTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := Resolve(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if loc.Kind != tt.wantKind || loc.URL != tt.wantURL {
				t.Errorf("Resolve(%q) = {%v %q}, want {%v %q}", tt.input, loc.Kind, loc.URL, tt.wantKind, tt.wantURL)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{KindHTTP: "http", KindData: "data", KindFile: "file", KindFTP: "ftp", Kind(9): "unknown"} {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
