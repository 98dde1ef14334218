package io

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/sawtooth/pkg/errors"
)

// Encode writes v to w in format f.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode toml")
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
		}
		if err := enc.Close(); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode json")
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path, syncs it and
// renames it into place. On any failure the temporary file is removed and
// path is left untouched. Errors carry errors.ErrCodeSinkFailure.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeSinkFailure, err, "create temp file in %s", dir)
	}
	name := tmp.Name()
	if err := writeSynced(tmp, data, path); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeSinkFailure, err, "publish %s", path)
	}
	return nil
}

// writeSynced writes, syncs and closes f. path names the destination in
// errors.
func writeSynced(f *os.File, data []byte, path string) error {
	fail := func(err error, step string) error {
		f.Close()
		return errors.Wrap(errors.ErrCodeSinkFailure, err, "%s %s", step, path)
	}
	if _, err := f.Write(data); err != nil {
		return fail(err, "write")
	}
	if err := f.Sync(); err != nil {
		return fail(err, "sync")
	}
	if err := f.Chmod(0o644); err != nil {
		return fail(err, "chmod")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeSinkFailure, err, "close %s", path)
	}
	return nil
}

// Batch publishes a set of files in one directory as a unit. Files are
// staged in a hidden subdirectory and only renamed into place by Commit once
// every one of them has been written. If Commit fails halfway, files already
// moved are taken back and the files they replaced are restored.
//
//	b, err := io.NewBatch("out")
//	defer b.Discard()
//	b.Add("lmx1.dxf", data1)
//	b.Add("lmx2.dxf", data2)
//	paths, err := b.Commit()
type Batch struct {
	dir   string
	stage string
	names []string
	seen  map[string]bool
}

// NewBatch creates dir if needed and a staging area inside it.
func NewBatch(dir string) (*Batch, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}
	stage, err := os.MkdirTemp(dir, ".stage-*")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSinkFailure, err, "create staging area in %s", dir)
	}
	return &Batch{dir: dir, stage: stage, seen: make(map[string]bool)}, nil
}

// Add stages data under the base name name.
func (b *Batch) Add(name string, data []byte) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return errors.New(errors.ErrCodeInvalidPath, "invalid file name %q", name)
	}
	if b.seen[name] {
		return errors.New(errors.ErrCodeInvalidPath, "duplicate file name %q", name)
	}
	f, err := os.OpenFile(filepath.Join(b.stage, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSinkFailure, err, "stage %s", name)
	}
	if err := writeSynced(f, data, filepath.Join(b.dir, name)); err != nil {
		return err
	}
	b.seen[name] = true
	b.names = append(b.names, name)
	return nil
}

// Commit moves every staged file into the directory and returns the
// published paths in the order they were added. Destinations that exist but
// are not regular files fail the commit before anything is moved.
func (b *Batch) Commit() ([]string, error) {
	for _, name := range b.names {
		path := filepath.Join(b.dir, name)
		fi, err := os.Lstat(path)
		if err == nil && !fi.Mode().IsRegular() {
			return nil, errors.New(errors.ErrCodeSinkFailure, "publish %s: destination is not a regular file", path)
		}
	}

	backup := filepath.Join(b.stage, ".previous")
	if err := os.Mkdir(backup, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSinkFailure, err, "create staging area in %s", b.dir)
	}

	type move struct {
		path     string
		replaced bool
	}
	done := make([]move, 0, len(b.names))
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			m := done[i]
			os.Remove(m.path)
			if m.replaced {
				os.Rename(filepath.Join(backup, filepath.Base(m.path)), m.path)
			}
		}
	}

	paths := make([]string, 0, len(b.names))
	for _, name := range b.names {
		path := filepath.Join(b.dir, name)
		m := move{path: path}
		if _, err := os.Lstat(path); err == nil {
			if err := os.Rename(path, filepath.Join(backup, name)); err != nil {
				rollback()
				return nil, errors.Wrap(errors.ErrCodeSinkFailure, err, "publish %s", path)
			}
			m.replaced = true
		}
		if err := os.Rename(filepath.Join(b.stage, name), path); err != nil {
			if m.replaced {
				os.Rename(filepath.Join(backup, name), path)
			}
			rollback()
			return nil, errors.Wrap(errors.ErrCodeSinkFailure, err, "publish %s", path)
		}
		done = append(done, m)
		paths = append(paths, path)
	}
	return paths, nil
}

// Discard removes the staging area and anything left in it. It is safe to
// call after Commit and more than once.
func (b *Batch) Discard() {
	if b == nil || b.stage == "" {
		return
	}
	os.RemoveAll(b.stage)
	b.stage = ""
}

// CleanDir makes sure dir exists and removes the regular files in it whose
// extension is one of exts (case-insensitive). With no exts every regular
// file is removed. Subdirectories are never touched. It returns the number of
// removed files.
func CleanDir(dir string, exts ...string) (int, error) {
	return PruneDir(dir, func(name string) bool {
		if len(exts) == 0 {
			return false
		}
		ext := filepath.Ext(name)
		return !slices.ContainsFunc(exts, func(x string) bool { return strings.EqualFold(x, ext) })
	})
}

// PruneDir makes sure dir exists and removes every regular file in it for
// which keep returns false. Subdirectories are never touched.
func PruneDir(dir string, keep func(name string) bool) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", dir)
	}

	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if keep(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, errors.Wrap(errors.ErrCodeSinkFailure, err, "remove %s", e.Name())
		}
		removed++
	}
	return removed, nil
}
