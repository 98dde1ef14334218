package io

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/sawtooth/pkg/errors"
)

// Format is a structured file format.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat,
		"cannot infer format of %q (use .toml, .yaml, .yml or .json)", path)
}

// Decode reads a document in format f from r into v. Unknown keys are
// rejected. An empty document leaves v unchanged.
func Decode(r io.Reader, f Format, v any) error {
	switch f {
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return errors.New(errors.ErrCodeInvalidFormat, "unknown key %q", undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "read json")
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
	}
	return nil
}

// Load decodes the file at path into v, picking the format from the
// extension.
func Load(path string, v any) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer file.Close()

	if err := Decode(file, f, v); err != nil {
		return errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	return nil
}
