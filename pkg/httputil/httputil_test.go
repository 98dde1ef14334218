package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/sawtooth/pkg/errors"
	pkgio "github.com/matzehuels/sawtooth/pkg/io"
)

func TestFormatFromContentType(t *testing.T) {
	tests := []struct {
		header string
		want   pkgio.Format
		ok     bool
	}{
		{"", pkgio.FormatJSON, true},
		{"application/json; charset=utf-8", pkgio.FormatJSON, true},
		{"application/toml", pkgio.FormatTOML, true},
		{"application/x-yaml", pkgio.FormatYAML, true},
		{"text/yaml", pkgio.FormatYAML, true},
		{"text/csv", "", false},
		{";;", "", false},
	}
	for _, tt := range tests {
		got, err := FormatFromContentType(tt.header)
		if (err == nil) != tt.ok {
			t.Errorf("FormatFromContentType(%q) error = %v, want ok=%v", tt.header, err, tt.ok)
			continue
		}
		if !tt.ok && !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Errorf("FormatFromContentType(%q) code = %v", tt.header, errors.GetCode(err))
		}
		if got != tt.want {
			t.Errorf("FormatFromContentType(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

type doc struct {
	Spacing float64 `json:"spacing" toml:"spacing" yaml:"spacing"`
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name, contentType, body string
	}{
		{"json", "application/json", `{"spacing": 650}`},
		{"toml", "application/toml", "spacing = 650\n"},
		{"yaml", "application/yaml", "spacing: 650\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", tt.contentType)
			var d doc
			if err := DecodeBody(httptest.NewRecorder(), r, 0, &d); err != nil {
				t.Fatalf("DecodeBody error: %v", err)
			}
			if d.Spacing != 650 {
				t.Errorf("spacing = %v, want 650", d.Spacing)
			}
		})
	}
}

func TestDecodeBodyTooLarge(t *testing.T) {
	body := `{"spacing": 650}` + strings.Repeat(" ", 64)
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	var d doc
	err := DecodeBody(w, r, 16, &d)
	if err == nil {
		t.Fatal("DecodeBody accepted an oversized body")
	}
	if status := WriteError(w, err); status != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", status, http.StatusRequestEntityTooLarge)
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"params", errors.New(errors.ErrCodeInvalidParams, "profile 2: field a"), http.StatusBadRequest, "profile 2: field a"},
		{"overlap", errors.New(errors.ErrCodeLayoutOverlap, "pitch too small"), http.StatusUnprocessableEntity, "pitch too small"},
		{"wrapped", errors.Wrap(errors.ErrCodeInvalidFormat, errors.New(errors.ErrCodeInvalidInput, "line 3"), "decode toml"), http.StatusBadRequest, "decode toml: INVALID_INPUT: line 3"},
		{"sink", errors.New(errors.ErrCodeSinkFailure, "disk full at /var/x"), http.StatusInternalServerError, "Internal Server Error"},
		{"plain", http.ErrHandlerTimeout, http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if got := WriteError(w, tt.err); got != tt.status {
				t.Errorf("WriteError = %d, want %d", got, tt.status)
			}
			if w.Code != tt.status {
				t.Errorf("recorded status = %d, want %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			var body ErrorBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Message != tt.message {
				t.Errorf("message = %q, want %q", body.Message, tt.message)
			}
			if body.Code != string(errors.GetCode(tt.err)) {
				t.Errorf("code = %q, want %q", body.Code, errors.GetCode(tt.err))
			}
		})
	}
}
