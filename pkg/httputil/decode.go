package httputil

import (
	"io"
	"mime"
	"net/http"

	"github.com/matzehuels/sawtooth/pkg/errors"
	pkgio "github.com/matzehuels/sawtooth/pkg/io"
)

// MaxBodyBytes is the default request body limit.
const MaxBodyBytes = 1 << 20

// FormatFromContentType maps a Content-Type header to a document format. An
// empty header means JSON.
func FormatFromContentType(header string) (pkgio.Format, error) {
	if header == "" {
		return pkgio.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnsupported, err, "parse content type")
	}
	switch mt {
	case "application/json":
		return pkgio.FormatJSON, nil
	case "application/toml":
		return pkgio.FormatTOML, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return pkgio.FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported content type %q", mt)
}

// DecodeBody decodes the request body into v. A limit of 0 selects
// MaxBodyBytes.
func DecodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	f, err := FormatFromContentType(r.Header.Get("Content-Type"))
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = MaxBodyBytes
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	defer body.Close()
	if err := pkgio.Decode(body, f, v); err != nil {
		return err
	}
	// Drain so an oversized trailing body still reports the limit.
	if _, err := io.Copy(io.Discard, body); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	return nil
}
