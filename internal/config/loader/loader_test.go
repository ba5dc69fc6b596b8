package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

type sample struct {
	Editor struct {
		Name  string `toml:"name" yaml:"name"`
		Width int    `toml:"width" yaml:"width"`
	} `toml:"editor" yaml:"editor"`
	Tags []string `toml:"tags" yaml:"tags"`
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"settings.toml", FormatTOML, false},
		{"/etc/quill/Settings.TOML", FormatTOML, false},
		{"settings.yaml", FormatYAML, false},
		{"settings.yml", FormatYAML, false},
		{"settings.json", 0, true},
		{"settings", 0, true},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.path)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("FormatFor(%q) error = %v, want ErrUnsupportedFormat", tt.path, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("FormatFor(%q) = %v, %v; want %v", tt.path, got, err, tt.want)
		}
	}
}

func TestDecodeFormatsAgree(t *testing.T) {
	tomlSrc := `
tags = ["a", "b"]

[editor]
name = "quill"
width = 80
`
	yamlSrc := `
tags: [a, b]
editor:
  name: quill
  width: 80
`
	var fromTOML, fromYAML sample
	if err := Decode(FormatTOML, "a.toml", []byte(tomlSrc), &fromTOML); err != nil {
		t.Fatalf("Decode(toml): %v", err)
	}
	if err := Decode(FormatYAML, "a.yaml", []byte(yamlSrc), &fromYAML); err != nil {
		t.Fatalf("Decode(yaml): %v", err)
	}
	if diff := cmp.Diff(fromTOML, fromYAML); diff != "" {
		t.Errorf("decoders disagree (-toml +yaml):\n%s", diff)
	}
	if fromTOML.Editor.Width != 80 {
		t.Errorf("width = %d, want 80", fromTOML.Editor.Width)
	}
}

func TestDecodeKeepsUnsetValues(t *testing.T) {
	for _, f := range []Format{FormatTOML, FormatYAML} {
		t.Run(f.String(), func(t *testing.T) {
			var v sample
			v.Editor.Name = "default"
			v.Editor.Width = 100
			src := "[editor]\nwidth = 40\n"
			if f == FormatYAML {
				src = "editor:\n  width: 40\n"
			}
			if err := Decode(f, "src", []byte(src), &v); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if v.Editor.Name != "default" || v.Editor.Width != 40 {
				t.Errorf("got %+v", v.Editor)
			}
		})
	}
}

func TestDecodeEmptyYAML(t *testing.T) {
	var v sample
	v.Editor.Name = "kept"
	if err := Decode(FormatYAML, "empty.yaml", nil, &v); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.Editor.Name != "kept" {
		t.Errorf("name = %q, want kept", v.Editor.Name)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		src      string
		wantLine int
		contains string
	}{
		{"toml unknown key", FormatTOML, "[editor]\nname = \"x\"\ncolour = 1\n", 3, "colour"},
		{"toml syntax", FormatTOML, "[editor\n", -1, ""},
		{"yaml unknown key", FormatYAML, "editor:\n  name: x\n  colour: 1\n", 3, "colour"},
		{"yaml wrong type", FormatYAML, "editor:\n  width: wide\n", 2, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v sample
			err := Decode(tt.format, "bad", []byte(tt.src), &v)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if perr.Path != "bad" {
				t.Errorf("Path = %q, want bad", perr.Path)
			}
			if tt.wantLine < 0 {
				if perr.Line <= 0 {
					t.Errorf("Line = %d, want a position (%v)", perr.Line, err)
				}
			} else if perr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d (%v)", perr.Line, tt.wantLine, err)
			}
			if !strings.Contains(perr.Message, tt.contains) {
				t.Errorf("Message = %q, want it to contain %q", perr.Message, tt.contains)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/cfg/settings.toml", "[editor]\nname = \"toml\"\n")
	memfs.AddFile("/cfg/settings.yml", "editor:\n  name: yaml\n")

	var v sample
	found, err := LoadFile(memfs, "/cfg/settings.toml", &v)
	if err != nil || !found || v.Editor.Name != "toml" {
		t.Errorf("toml: found=%v err=%v name=%q", found, err, v.Editor.Name)
	}
	found, err = LoadFile(memfs, "/cfg/settings.yml", &v)
	if err != nil || !found || v.Editor.Name != "yaml" {
		t.Errorf("yaml: found=%v err=%v name=%q", found, err, v.Editor.Name)
	}
	found, err = LoadFile(memfs, "/cfg/missing.toml", &v)
	if err != nil || found {
		t.Errorf("missing: found=%v err=%v", found, err)
	}
	if _, err := LoadFile(memfs, "/cfg/settings.ini", &v); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ini: err=%v, want ErrUnsupportedFormat", err)
	}
}

func TestParseErrorFormatting(t *testing.T) {
	inner := errors.New("boom")
	tests := []struct {
		err  *ParseError
		want string
	}{
		{&ParseError{Path: "a", Message: "m"}, "parse error in a: m"},
		{&ParseError{Path: "a", Line: 2, Message: "m"}, "parse error in a at line 2: m"},
		{&ParseError{Path: "a", Line: 2, Column: 5, Message: "m", Err: inner}, "parse error in a at line 2, column 5: m"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
	if !errors.Is(tests[2].err, inner) {
		t.Error("ParseError does not unwrap")
	}
}
