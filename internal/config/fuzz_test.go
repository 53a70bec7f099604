package config

import "testing"

// FuzzPlainParser checks that the plain parser never panics and never
// returns a nil config without an error.
func FuzzPlainParser(f *testing.F) {
	f.Add([]byte("image https://picsum.photos/536/354\ntext_top hi\nmirror\n"))
	f.Add([]byte("# comment\nscale=2\nrotate: -45\n"))
	f.Add([]byte(""))
	f.Add([]byte("\n\n\n"))
	f.Add([]byte("mirror"))
	f.Add([]byte("scale not_a_number"))
	f.Add([]byte("text_color rgba(1,2,3,9)"))
	f.Add([]byte("quality 1e309"))

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := NewPlainParser().Parse(data)
		if err == nil && cfg == nil {
			t.Error("Parse returned nil config with nil error")
		}
	})
}

// FuzzYAMLParser checks the YAML parser the same way.
func FuzzYAMLParser(f *testing.F) {
	f.Add([]byte("image: a.png\nscale: 2\n"))
	f.Add([]byte("---\n"))
	f.Add([]byte("text_color: #fff\n"))
	f.Add([]byte("scale: [1, 2]\n"))
	f.Add([]byte(":"))

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := NewYAMLParser().Parse(data)
		if err == nil && cfg == nil {
			t.Error("Parse returned nil config with nil error")
		}
	})
}

// FuzzDetectFormat checks that detection always picks a known format.
func FuzzDetectFormat(f *testing.F) {
	f.Add([]byte("meme.config = {}"))
	f.Add([]byte("image: x"))
	f.Add([]byte("image x"))

	f.Fuzz(func(t *testing.T, data []byte) {
		switch DetectFormat(data) {
		case FileFormatLua, FileFormatYAML, FileFormatPlain:
		default:
			t.Errorf("DetectFormat(%q) returned an unknown format", data)
		}
	})
}

// FuzzExpandEnv checks that expansion never panics and leaves strings
// without a "$" unchanged.
func FuzzExpandEnv(f *testing.F) {
	f.Add("${HOME}")
	f.Add("${A:-b}")
	f.Add("$")
	f.Add("${")
	f.Add("plain")

	f.Fuzz(func(t *testing.T, s string) {
		got := ExpandEnv(s)
		if !containsDollar(s) && got != s {
			t.Errorf("ExpandEnv(%q) = %q, want unchanged", s, got)
		}
	})
}

func containsDollar(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '$' {
			return true
		}
	}
	return false
}
