package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sawtooth/pkg/annotate"
	"github.com/matzehuels/sawtooth/pkg/cache"
	"github.com/matzehuels/sawtooth/pkg/drawing/record"
	"github.com/matzehuels/sawtooth/pkg/errors"
	"github.com/matzehuels/sawtooth/pkg/geom"
	"github.com/matzehuels/sawtooth/pkg/observability"
	"github.com/matzehuels/sawtooth/pkg/profile"
)

var (
	stair = profile.Params{Rise: 164.44, Run: 252.22, RightExcess: 30, LeftExcess: 70, Height: 250, Teeth: 10}
	small = profile.Params{Rise: 150, Run: 250, RightExcess: 20, LeftExcess: 40, Height: 250, Teeth: 3}
	flat  = profile.Params{Rise: 0, Run: 250, Height: 250, Teeth: 3}
)

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dxf", false},
		{"svg", false},
		{"json", false},
		{"scr", false},
		{"png", true},
		{"DXF", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
	if err := ValidateFormats([]string{"dxf", "pdf"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ValidateFormats error = %v, want %v", err, errors.ErrCodeInvalidInput)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Profiles: []profile.Params{stair}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults error: %v", err)
	}
	if opts.Layout.Axis != "y" || opts.Layout.Mode != "fixed" || opts.Layout.Spacing != 1000 {
		t.Errorf("layout defaults = %+v", opts.Layout)
	}
	if opts.Layout.ToothPolicy != "nominal" {
		t.Errorf("tooth policy = %q, want nominal", opts.Layout.ToothPolicy)
	}
	if len(opts.Render.Formats) != 1 || opts.Render.Formats[0] != FormatDXF {
		t.Errorf("formats = %v, want [dxf]", opts.Render.Formats)
	}
	if opts.Render.Locale != "zh" || opts.Render.Name != DefaultName || opts.Render.Precision == nil || *opts.Render.Precision != annotate.DefaultPrecision {
		t.Errorf("render defaults = %+v", opts.Render)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}

	opts.Render.Formats[0] = "svg"
	if DefaultFormats[0] != FormatDXF {
		t.Error("defaults share storage with DefaultFormats")
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		code   errors.Code
	}{
		{"no profiles", func(o *Options) { o.Profiles = nil }, errors.ErrCodeInvalidInput},
		{"negative spacing", func(o *Options) { o.Layout.Spacing = -5 }, errors.ErrCodeInvalidSpacing},
		{"bad axis", func(o *Options) { o.Layout.Axis = "z" }, errors.ErrCodeInvalidInput},
		{"bad mode", func(o *Options) { o.Layout.Mode = "grid" }, errors.ErrCodeInvalidInput},
		{"bad policy", func(o *Options) { o.Layout.ToothPolicy = "more" }, errors.ErrCodeInvalidInput},
		{"bad format", func(o *Options) { o.Render.Formats = []string{"pdf"} }, errors.ErrCodeInvalidInput},
		{"bad locale", func(o *Options) { o.Render.Locale = "de" }, errors.ErrCodeInvalidInput},
		{"bad precision", func(o *Options) { o.Render.Precision = intPtr(42) }, errors.ErrCodeInvalidInput},
		{"negative precision", func(o *Options) { o.Render.Precision = intPtr(-1) }, errors.ErrCodeInvalidInput},
		{"negative tolerance", func(o *Options) { o.Layout.Tolerance = -1e-3 }, errors.ErrCodeInvalidInput},
		{"negative margin", func(o *Options) { o.Render.Margin = -1 }, errors.ErrCodeInvalidInput},
		{"escaping prefix", func(o *Options) { o.Render.Prefix = "../x" }, errors.ErrCodeInvalidPath},
		{"escaping name", func(o *Options) { o.Render.Name = "a/b" }, errors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{Profiles: []profile.Params{stair}}
			tt.mutate(&opts)
			err := opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %v", err, tt.code)
			}
		})
	}
}

func intPtr(n int) *int { return &n }

func TestPrecisionZero(t *testing.T) {
	opts := Options{
		Render:   RenderOptions{Formats: []string{FormatJSON}, Precision: intPtr(0)},
		Profiles: []profile.Params{stair},
	}
	res, err := quietRunner(nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	doc := string(res.Artifacts[0].Data)
	if !strings.Contains(doc, `"label": "164"`) {
		t.Errorf("rise label is not an integer:\n%s", doc)
	}
	if strings.Contains(doc, "164.4400") {
		t.Error("precision 0 fell back to the default")
	}
}

func TestToleranceOption(t *testing.T) {
	steep := profile.Params{Rise: 1000, Run: 1, Height: 250, Teeth: 1}
	for _, tt := range []struct {
		tol    float64
		placed int
	}{
		{0, 2},
		{0.01, 1},
	} {
		opts := Options{
			Layout:   LayoutOptions{Spacing: 650, Tolerance: tt.tol},
			Profiles: []profile.Params{steep, stair},
		}
		if err := opts.ValidateAndSetDefaults(); err != nil {
			t.Fatal(err)
		}
		res, _, err := BuildLayout(context.Background(), opts, log.New(io.Discard))
		if err != nil {
			t.Fatalf("tolerance %v: BuildLayout error: %v", tt.tol, err)
		}
		if len(res.Placed) != tt.placed {
			t.Errorf("tolerance %v: placed = %d, want %d", tt.tol, len(res.Placed), tt.placed)
		}
	}
}

func TestRenderStyleOptions(t *testing.T) {
	base := Options{
		Layout:   LayoutOptions{Spacing: 650},
		Render:   RenderOptions{Formats: []string{FormatDXF, FormatSVG, FormatScript}},
		Profiles: []profile.Params{stair},
	}
	styled := base
	styled.Render.Formats = slices.Clone(base.Render.Formats)
	styled.Render.Margin = 10
	styled.Render.DimTextHeight = 20
	styled.Render.DimArrowSize = 5

	if st := styled.DimStyle(); st.TextHeight != 20 || st.ArrowSize != 5 || st.Name != "RED_DIM" {
		t.Errorf("DimStyle = %+v", st)
	}
	if st := base.ScriptSettings(); st.DimTextHeight != 12 || st.DimArrowSize != 8 {
		t.Errorf("default ScriptSettings = %+v", st)
	}

	r := quietRunner(nil)
	plain, err := r.Execute(context.Background(), base)
	if err != nil {
		t.Fatal(err)
	}
	custom, err := r.Execute(context.Background(), styled)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{FormatDXF, FormatSVG, FormatScript} {
		if bytes.Equal(plain.ByFormat(f)[0].Data, custom.ByFormat(f)[0].Data) {
			t.Errorf("%s output ignores the style options", f)
		}
	}
	if !strings.Contains(string(custom.ByFormat(FormatScript)[0].Data), "_.DIMTXT\n20\n") {
		t.Error("script preamble does not set the dimension text height")
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.toml")
	doc := `
[layout]
spacing = 650
descending = true

[render]
formats = ["dxf", "json"]
locale = "en"

[[profile]]
a = 164.44
b = 252.22
c = 30
d = 70
h = 250
n = 10

[[profile]]
a = 150
b = 250
c = 20
d = 40
h = 250
n = 3
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions error: %v", err)
	}
	if opts.Layout.Spacing != 650 || !opts.Layout.Descending {
		t.Errorf("layout = %+v", opts.Layout)
	}
	if opts.Render.Locale != "en" || len(opts.Render.Formats) != 2 {
		t.Errorf("render = %+v", opts.Render)
	}
	if len(opts.Profiles) != 2 || opts.Profiles[0] != stair || opts.Profiles[1] != small {
		t.Errorf("profiles = %+v", opts.Profiles)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[layout]\npitch = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOptions(bad); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown key error = %v, want %v", err, errors.ErrCodeInvalidFormat)
	}
}

func TestParseTuple(t *testing.T) {
	tests := []struct {
		in      string
		want    profile.Params
		wantErr bool
	}{
		{"164.44,252.22,30,70,250,10", stair, false},
		{"150 250 20 40 250 3", small, false},
		{"150; 250; 20; 40; 250; 3", small, false},
		{"150,250,20,40,250", profile.Params{}, true},
		{"150,250,20,40,250,3.5", profile.Params{}, true},
		{"x,250,20,40,250,3", profile.Params{}, true},
		{"NaN,250,20,40,250,3", profile.Params{}, true},
	}
	for _, tt := range tests {
		got, err := ParseTuple(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTuple(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			if !errors.Is(err, errors.ErrCodeInvalidParams) {
				t.Errorf("ParseTuple(%q) code = %v, want %v", tt.in, errors.GetCode(err), errors.ErrCodeInvalidParams)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTuple(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseTuples([]string{"1,2,3,4,5,6", "bad"}); err == nil || !strings.Contains(err.Error(), "profile 2") {
		t.Errorf("ParseTuples error = %v, want it to name profile 2", err)
	}
}

func TestExecute(t *testing.T) {
	opts := Options{
		Layout:   LayoutOptions{Spacing: 650},
		Render:   RenderOptions{Formats: []string{FormatDXF, FormatSVG, FormatJSON, FormatScript}},
		Profiles: []profile.Params{stair, flat, small},
	}
	res, err := quietRunner(nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if res.Stats.Profiles != 3 || res.Stats.Placed != 2 || res.Stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 3 profiles, 2 placed, 1 skipped", res.Stats)
	}
	if len(res.Layout.Skipped) != 1 || res.Layout.Skipped[0].Index != 2 {
		t.Errorf("skipped = %+v, want profile 2", res.Layout.Skipped)
	}

	var names []string
	for _, a := range res.Artifacts {
		names = append(names, a.Name)
	}
	if got := strings.Join(names, " "); got != "stringers.dxf stringers.svg stringers.json stringers.scr" {
		t.Errorf("artifacts = %s", got)
	}

	dxfData := string(res.ByFormat(FormatDXF)[0].Data)
	if got := strings.Count(dxfData, "\nPOLYLINE\n"); got != 2 {
		t.Errorf("DXF polylines = %d, want 2", got)
	}
	if !strings.Contains(dxfData, res.RunID.String()) {
		t.Error("DXF header comment does not carry the run id")
	}
	if !strings.Contains(string(res.ByFormat(FormatJSON)[0].Data), `"index": 2`) {
		t.Error("JSON export does not list the skipped profile")
	}
	if got := strings.Count(string(res.ByFormat(FormatScript)[0].Data), "_.PLINE\n"); got != 2 {
		t.Errorf("script outlines = %d, want 2", got)
	}
	if !bytes.HasPrefix(res.ByFormat(FormatSVG)[0].Data, []byte("<?xml")) {
		t.Error("SVG artifact is not an XML document")
	}
	if res.CacheInfo.RenderHit() {
		t.Error("null cache reported a hit")
	}
}

func TestExecuteSplit(t *testing.T) {
	opts := Options{
		Layout:   LayoutOptions{Spacing: 650},
		Render:   RenderOptions{Split: true, Prefix: "lmx"},
		Profiles: []profile.Params{stair, flat, small},
	}
	res, err := quietRunner(nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(res.Artifacts) != 2 {
		t.Fatalf("artifacts = %d, want one per placed profile", len(res.Artifacts))
	}
	for i, want := range []struct {
		name  string
		index int
	}{{"lmx1.dxf", 1}, {"lmx3.dxf", 3}} {
		a := res.Artifacts[i]
		if a.Name != want.name || a.Index != want.index {
			t.Errorf("artifact %d = %s (index %d), want %s (index %d)", i, a.Name, a.Index, want.name, want.index)
		}
		if got := strings.Count(string(a.Data), "\nPOLYLINE\n"); got != 1 {
			t.Errorf("%s holds %d polylines, want 1", a.Name, got)
		}
	}
}

func TestExecuteRejectsBatch(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"overlapping pitch", Options{Layout: LayoutOptions{Spacing: 100}, Profiles: []profile.Params{stair, small}}, errors.ErrCodeLayoutOverlap},
		{"negative spacing", Options{Layout: LayoutOptions{Spacing: -1}, Profiles: []profile.Params{stair}}, errors.ErrCodeInvalidSpacing},
		{"empty batch", Options{}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := quietRunner(nil).Execute(context.Background(), tt.opts)
			if res != nil || !errors.Is(err, tt.code) {
				t.Errorf("Execute = %v, %v; want code %v", res, err, tt.code)
			}
		})
	}
}

func TestExecuteUsesCache(t *testing.T) {
	mem := cache.NewMemoryCache()
	runner := quietRunner(mem)
	opts := Options{
		Layout:   LayoutOptions{Spacing: 650},
		Render:   RenderOptions{Formats: []string{FormatDXF, FormatSVG}},
		Profiles: []profile.Params{stair, small},
	}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.CacheInfo.Misses) != 2 || mem.Len() != 2 {
		t.Fatalf("first run misses = %v, cache entries = %d", first.CacheInfo.Misses, mem.Len())
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.RenderHit() {
		t.Errorf("second run cache info = %+v, want all hits", second.CacheInfo)
	}
	for i := range first.Artifacts {
		if first.Artifacts[i].Name != second.Artifacts[i].Name || !bytes.Equal(first.Artifacts[i].Data, second.Artifacts[i].Data) {
			t.Errorf("artifact %d differs between runs", i)
		}
	}

	opts.Render.Locale = "en"
	third, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(third.CacheInfo.Hits) != 0 {
		t.Errorf("changed locale still hit the cache: %+v", third.CacheInfo)
	}

	opts.Render.Locale = ""
	opts.Refresh = true
	fourth, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(fourth.CacheInfo.Hits) != 0 {
		t.Errorf("refresh still hit the cache: %+v", fourth.CacheInfo)
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	skipped []int
	placed  int
}

func (h *countingHooks) OnProfileSkipped(_ context.Context, index int, _ string) {
	h.skipped = append(h.skipped, index)
}

func (h *countingHooks) OnLayoutComplete(_ context.Context, placed, _ int, _ time.Duration, _ error) {
	h.placed = placed
}

func TestExecuteReportsSkippedProfiles(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	var logs bytes.Buffer
	runner := NewRunner(nil, nil, log.New(&logs))
	_, err := runner.Execute(context.Background(), Options{
		Layout:   LayoutOptions{Spacing: 650},
		Profiles: []profile.Params{flat, stair, flat},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(hooks.skipped) != 2 || hooks.skipped[0] != 1 || hooks.skipped[1] != 3 {
		t.Errorf("skipped hooks = %v, want [1 3]", hooks.skipped)
	}
	if hooks.placed != 1 {
		t.Errorf("placed = %d, want 1", hooks.placed)
	}
	if got := strings.Count(logs.String(), "skipped profile"); got != 2 {
		t.Errorf("logged %d skip warnings, want 2:\n%s", got, logs.String())
	}
}

type brokenSession struct{ *record.Recorder }

var errHostGone = stderrors.New("host gone")

func (brokenSession) AddText(string, geom.Point, float64) error { return errHostGone }

func TestStream(t *testing.T) {
	opts := Options{
		Layout:   LayoutOptions{Spacing: 650},
		Profiles: []profile.Params{stair, small, flat},
	}

	rec := record.New()
	res, err := quietRunner(nil).Stream(context.Background(), opts, rec)
	if err != nil {
		t.Fatalf("Stream error: %v", err)
	}
	if res.Stats.Placed != 2 || rec.Count(record.KindPolyline) != 2 {
		t.Errorf("placed = %d, recorded outlines = %d; want 2 and 2", res.Stats.Placed, rec.Count(record.KindPolyline))
	}
	if len(res.Artifacts) != 0 {
		t.Errorf("Stream produced %d artifacts", len(res.Artifacts))
	}

	broken := brokenSession{record.New()}
	_, err = quietRunner(nil).Stream(context.Background(), opts, broken)
	if !errors.Is(err, errors.ErrCodeSinkFailure) || !stderrors.Is(err, errHostGone) {
		t.Errorf("Stream error = %v, want sink failure wrapping %v", err, errHostGone)
	}
	if got := broken.Count(record.KindPolyline); got != 1 {
		t.Errorf("outlines sent before failure = %d, want 1", got)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "old.dxf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "keep"), 0o755); err != nil {
		t.Fatal(err)
	}

	arts := []Artifact{
		{Name: "lmx1.dxf", Format: FormatDXF, Index: 1, Data: []byte("one")},
		{Name: "lmx2.dxf", Format: FormatDXF, Index: 2, Data: []byte("two")},
	}
	paths, err := WriteArtifacts(dir, arts, true)
	if err != nil {
		t.Fatalf("WriteArtifacts error: %v", err)
	}
	if len(paths) != 2 || paths[1] != filepath.Join(dir, "lmx2.dxf") {
		t.Errorf("paths = %v", paths)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.dxf")); !os.IsNotExist(err) {
		t.Error("clean left old.dxf in place")
	}
	if fi, err := os.Stat(filepath.Join(dir, "keep")); err != nil || !fi.IsDir() {
		t.Error("clean removed a subdirectory")
	}
	data, _ := os.ReadFile(paths[0])
	if string(data) != "one" {
		t.Errorf("lmx1.dxf = %q", data)
	}

	if _, err := WriteArtifacts(dir, []Artifact{{Name: "../escape.dxf"}}, false); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("escaping name error = %v, want %v", err, errors.ErrCodeInvalidPath)
	}
}

func TestWriteArtifactsFailureLeavesDirectory(t *testing.T) {
	dir := t.TempDir()
	for name, data := range map[string]string{"lmx1.dxf": "previous", "old.dxf": "x"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// A directory in place of the second file makes its publish fail.
	if err := os.Mkdir(filepath.Join(dir, "lmx2.dxf"), 0o755); err != nil {
		t.Fatal(err)
	}

	arts := []Artifact{
		{Name: "lmx1.dxf", Format: FormatDXF, Index: 1, Data: []byte("one")},
		{Name: "lmx2.dxf", Format: FormatDXF, Index: 2, Data: []byte("two")},
	}
	paths, err := WriteArtifacts(dir, arts, true)
	if !errors.Is(err, errors.ErrCodeSinkFailure) {
		t.Fatalf("WriteArtifacts error = %v, want %v", err, errors.ErrCodeSinkFailure)
	}
	if len(paths) != 0 {
		t.Errorf("paths = %v, want none", paths)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "lmx1.dxf"))
	if string(data) != "previous" {
		t.Errorf("lmx1.dxf = %q, want the previous content", data)
	}
	entries, _ := os.ReadDir(dir)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if got := strings.Join(names, " "); got != "lmx1.dxf lmx2.dxf old.dxf" {
		t.Errorf("directory = %s, want lmx1.dxf lmx2.dxf old.dxf", got)
	}
}
