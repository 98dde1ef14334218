package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/sawtooth/pkg/errors"
)

type tuple struct {
	A float64 `json:"a" toml:"a" yaml:"a"`
	N int     `json:"n" toml:"n" yaml:"n"`
}

type batch struct {
	Layout struct {
		Axis    string  `json:"axis" toml:"axis" yaml:"axis"`
		Spacing float64 `json:"spacing" toml:"spacing" yaml:"spacing"`
	} `json:"layout" toml:"layout" yaml:"layout"`
	Profiles []tuple `json:"profile" toml:"profile" yaml:"profile"`
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"batch.toml", FormatTOML, true},
		{"dir/BATCH.YAML", FormatYAML, true},
		{"b.yml", FormatYAML, true},
		{"b.json", FormatJSON, true},
		{"b.csv", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err == nil) != tt.ok {
			t.Errorf("FormatFromPath(%q) error = %v, want ok=%v", tt.path, err, tt.ok)
			continue
		}
		if !tt.ok && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("FormatFromPath(%q) code = %v, want %v", tt.path, errors.GetCode(err), errors.ErrCodeInvalidFormat)
		}
		if got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		doc    string
	}{
		{"toml", FormatTOML, `
[layout]
axis = "x"
spacing = 650.5

[[profile]]
a = 164.44
n = 10

[[profile]]
a = 150
n = 3
`},
		{"yaml", FormatYAML, `
layout:
  axis: x
  spacing: 650.5
profile:
  - {a: 164.44, n: 10}
  - {a: 150, n: 3}
`},
		{"json", FormatJSON, `{"layout": {"axis": "x", "spacing": 650.5},
 "profile": [{"a": 164.44, "n": 10}, {"a": 150, "n": 3}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b batch
			if err := Decode(strings.NewReader(tt.doc), tt.format, &b); err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if b.Layout.Axis != "x" || b.Layout.Spacing != 650.5 {
				t.Errorf("layout = %+v", b.Layout)
			}
			want := []tuple{{164.44, 10}, {150, 3}}
			if len(b.Profiles) != len(want) {
				t.Fatalf("profiles = %d, want %d", len(b.Profiles), len(want))
			}
			for i := range want {
				if b.Profiles[i] != want[i] {
					t.Errorf("profile %d = %+v, want %+v", i, b.Profiles[i], want[i])
				}
			}
		})
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		format Format
		doc    string
	}{
		{FormatTOML, "[layout]\nspacing = 650\ncolour = \"red\"\n"},
		{FormatYAML, "layout:\n  spacing: 650\n  colour: red\n"},
		{FormatJSON, `{"layout": {"spacing": 650, "colour": "red"}}`},
	}
	for _, tt := range tests {
		var b batch
		err := Decode(strings.NewReader(tt.doc), tt.format, &b)
		if !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("%s: error = %v, want %v", tt.format, err, errors.ErrCodeInvalidFormat)
		}
	}
}

func TestDecodeEmptyDocument(t *testing.T) {
	for _, f := range []Format{FormatTOML, FormatYAML, FormatJSON} {
		var b batch
		b.Layout.Spacing = 42
		if err := Decode(strings.NewReader(""), f, &b); err != nil {
			t.Errorf("%s: Decode(empty) error: %v", f, err)
		}
		if b.Layout.Spacing != 42 {
			t.Errorf("%s: empty document changed the target", f)
		}
	}
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	var b batch
	if err := Decode(strings.NewReader("x"), "ini", &b); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want %v", err, errors.ErrCodeInvalidFormat)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	var in batch
	in.Layout.Axis = "y"
	in.Layout.Spacing = 1000
	in.Profiles = []tuple{{A: 164.44, N: 10}}

	for _, f := range []Format{FormatTOML, FormatYAML, FormatJSON} {
		var buf bytes.Buffer
		if err := Encode(&buf, f, in); err != nil {
			t.Fatalf("%s: Encode error: %v", f, err)
		}
		var out batch
		if err := Decode(&buf, f, &out); err != nil {
			t.Fatalf("%s: Decode error: %v", f, err)
		}
		if out.Layout != in.Layout || len(out.Profiles) != 1 || out.Profiles[0] != in.Profiles[0] {
			t.Errorf("%s: round trip = %+v, want %+v", f, out, in)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		var b batch
		err := Load(filepath.Join(dir, "missing.toml"), &b)
		if !errors.Is(err, errors.ErrCodeFileNotFound) {
			t.Errorf("error = %v, want %v", err, errors.ErrCodeFileNotFound)
		}
	})

	t.Run("decode error names the file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("layout: [unclosed\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		var b batch
		err := Load(path, &b)
		if !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidFormat)
		}
		if err == nil || !strings.Contains(err.Error(), "bad.yaml") {
			t.Errorf("error %v does not name the file", err)
		}
	})

	t.Run("toml", func(t *testing.T) {
		path := filepath.Join(dir, "ok.toml")
		if err := os.WriteFile(path, []byte("[layout]\nspacing = 650\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		var b batch
		if err := Load(path, &b); err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if b.Layout.Spacing != 650 {
			t.Errorf("spacing = %v, want 650", b.Layout.Spacing)
		}
	})
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.dxf")

	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new")); err != nil {
		t.Fatalf("WriteFileAtomic error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("content = %q, want %q", data, "new")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the published file", len(entries))
	}

	missing := filepath.Join(dir, "nope", "out.dxf")
	if err := WriteFileAtomic(missing, []byte("x")); !errors.Is(err, errors.ErrCodeSinkFailure) {
		t.Errorf("error = %v, want %v", err, errors.ErrCodeSinkFailure)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("failed write left a file behind")
	}
}

func TestCleanDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"1.dxf", "2.DXF", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "keep.dxf"), 0o755); err != nil {
		t.Fatal(err)
	}

	n, err := CleanDir(dir, ".dxf")
	if err != nil {
		t.Fatalf("CleanDir error: %v", err)
	}
	if n != 2 {
		t.Errorf("removed = %d, want 2", n)
	}
	left, _ := os.ReadDir(dir)
	var names []string
	for _, e := range left {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "keep.dxf,notes.txt" {
		t.Errorf("remaining = %v, want [keep.dxf notes.txt]", names)
	}

	n, err = CleanDir(dir)
	if err != nil || n != 1 {
		t.Errorf("CleanDir(all) = %d, %v, want 1 file removed", n, err)
	}

	fresh := filepath.Join(dir, "new", "out")
	if n, err := CleanDir(fresh); err != nil || n != 0 {
		t.Errorf("CleanDir(new dir) = %d, %v", n, err)
	}
	if fi, err := os.Stat(fresh); err != nil || !fi.IsDir() {
		t.Error("CleanDir did not create the directory")
	}
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lmx1.dxf"), []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := NewBatch(dir)
	if err != nil {
		t.Fatalf("NewBatch error: %v", err)
	}
	defer b.Discard()
	if err := b.Add("lmx1.dxf", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := b.Add("lmx2.dxf", []byte("two")); err != nil {
		t.Fatal(err)
	}
	if err := b.Add("lmx2.dxf", nil); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("duplicate Add error = %v, want %v", err, errors.ErrCodeInvalidPath)
	}
	if err := b.Add("../up.dxf", nil); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("Add(../up.dxf) error = %v, want %v", err, errors.ErrCodeInvalidPath)
	}

	if _, err := os.Stat(filepath.Join(dir, "lmx2.dxf")); !os.IsNotExist(err) {
		t.Error("staged file visible before Commit")
	}
	paths, err := b.Commit()
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if len(paths) != 2 || paths[0] != filepath.Join(dir, "lmx1.dxf") {
		t.Errorf("paths = %v", paths)
	}
	b.Discard()

	data, _ := os.ReadFile(filepath.Join(dir, "lmx1.dxf"))
	if string(data) != "one" {
		t.Errorf("lmx1.dxf = %q, want %q", data, "one")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("directory holds %d entries, want the 2 published files", len(entries))
	}
}

func TestBatchCommitRejectsNonRegularTarget(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "lmx2.dxf"), 0o755); err != nil {
		t.Fatal(err)
	}

	b, err := NewBatch(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Discard()
	for _, name := range []string{"lmx1.dxf", "lmx2.dxf"} {
		if err := b.Add(name, []byte(name)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := b.Commit(); !errors.Is(err, errors.ErrCodeSinkFailure) {
		t.Fatalf("Commit error = %v, want %v", err, errors.ErrCodeSinkFailure)
	}
	if _, err := os.Stat(filepath.Join(dir, "lmx1.dxf")); !os.IsNotExist(err) {
		t.Error("failed commit published lmx1.dxf")
	}
}

func TestPruneDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.dxf", "b.dxf", "c.svg"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	n, err := PruneDir(dir, func(name string) bool { return name == "b.dxf" })
	if err != nil || n != 2 {
		t.Fatalf("PruneDir = %d, %v, want 2 removed", n, err)
	}
	left, _ := os.ReadDir(dir)
	if len(left) != 1 || left[0].Name() != "b.dxf" {
		t.Errorf("remaining = %v, want [b.dxf]", left)
	}
}
