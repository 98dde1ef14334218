package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/sawtooth/pkg/annotate"
	"github.com/matzehuels/sawtooth/pkg/buildinfo"
	"github.com/matzehuels/sawtooth/pkg/errors"
	"github.com/matzehuels/sawtooth/pkg/geom"
	"github.com/matzehuels/sawtooth/pkg/httputil"
	"github.com/matzehuels/sawtooth/pkg/pipeline"
	"github.com/matzehuels/sawtooth/pkg/profile"
)

var contentTypes = map[string]string{
	pipeline.FormatDXF:    "application/dxf",
	pipeline.FormatSVG:    "image/svg+xml",
	pipeline.FormatJSON:   "application/json",
	pipeline.FormatScript: "text/plain; charset=us-ascii",
}

// Response headers set by /v1/render.
const (
	HeaderRunID   = "X-Run-Id"
	HeaderPlaced  = "X-Profiles-Placed"
	HeaderSkipped = "X-Profiles-Skipped"
	HeaderCache   = "X-Cache"
)

type healthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Info: buildinfo.Get()})
}

// renderResponse carries split output, one artifact per profile.
type renderResponse struct {
	RunID     string              `json:"run_id"`
	Artifacts []pipeline.Artifact `json:"artifacts"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatDXF
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.fail(w, r, err)
		return
	}

	opts, err := s.decode(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts.Render.Formats = []string{format}
	if v := q.Get("refresh"); v != "" {
		if opts.Refresh, err = strconv.ParseBool(v); err != nil {
			s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid refresh value %q", v))
			return
		}
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	h := w.Header()
	h.Set(HeaderRunID, res.RunID.String())
	h.Set(HeaderPlaced, strconv.Itoa(res.Stats.Placed))
	h.Set(HeaderSkipped, strconv.Itoa(res.Stats.Skipped))
	if res.CacheInfo.RenderHit() {
		h.Set(HeaderCache, "hit")
	} else {
		h.Set(HeaderCache, "miss")
	}

	if opts.Render.Split {
		httputil.WriteJSON(w, http.StatusOK, renderResponse{RunID: res.RunID.String(), Artifacts: res.Artifacts})
		return
	}
	a := res.Artifacts[0]
	h.Set("Content-Type", contentTypes[format])
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
	h.Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}

type layoutResponse struct {
	Axis    string           `json:"axis"`
	Spacing float64          `json:"spacing"`
	Bounds  *geom.BBox       `json:"bounds,omitempty"`
	Placed  []placedProfile  `json:"placed"`
	Skipped []skippedProfile `json:"skipped,omitempty"`
}

type placedProfile struct {
	Index      int                  `json:"index"`
	Params     profile.Params       `json:"params"`
	Offset     geom.Point           `json:"offset"`
	Teeth      int                  `json:"teeth"`
	ApexHeight float64              `json:"apex_height"`
	Vertices   geom.Polygon         `json:"vertices"`
	Dimensions []annotate.Dimension `json:"dimensions,omitempty"`
}

type skippedProfile struct {
	Index  int            `json:"index"`
	Params profile.Params `json:"params"`
	Code   string         `json:"code"`
	Reason string         `json:"reason"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.decode(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.fail(w, r, err)
		return
	}

	res, _, err := pipeline.BuildLayout(r.Context(), opts, opts.Logger)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := layoutResponse{
		Axis:    opts.Layout.Axis,
		Spacing: opts.Layout.Spacing,
		Placed:  make([]placedProfile, 0, len(res.Placed)),
	}
	if b, ok := res.Bounds(); ok {
		resp.Bounds = &b
	}
	draw := opts.DrawOptions()
	for _, p := range res.Placed {
		pp := placedProfile{
			Index:      p.Index,
			Params:     p.Params,
			Offset:     p.Offset,
			Teeth:      p.Outline.Teeth(),
			ApexHeight: p.Outline.ApexHeight(),
			Vertices:   p.Outline.Points(),
		}
		if !draw.NoDimensions {
			pp.Dimensions = annotate.Derive(p, draw.Annotate...)
		}
		resp.Placed = append(resp.Placed, pp)
	}
	for _, sk := range res.Skipped {
		resp.Skipped = append(resp.Skipped, skippedProfile{
			Index:  sk.Index,
			Params: sk.Params,
			Code:   string(errors.GetCode(sk.Err)),
			Reason: sk.Reason(),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// decode reads the batch document and attaches the request logger.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	if err := httputil.DecodeBody(w, r, s.maxBody, &opts); err != nil {
		return pipeline.Options{}, err
	}
	opts.Logger = s.requestLogger(r)
	return opts, nil
}

func (s *Server) requestLogger(r *http.Request) *log.Logger {
	return s.logger.With("request", middleware.GetReqID(r.Context()))
}

// fail writes err unless the request timed out, in which case the timeout
// middleware answers.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return
	}
	status := httputil.WriteError(w, err)
	if status >= http.StatusInternalServerError {
		s.requestLogger(r).Error("request failed", "error", err)
	}
}
