package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/canvas"
	"github.com/example/sketchpad/internal/core"
	"github.com/example/sketchpad/internal/session"
	"github.com/example/sketchpad/internal/stores/memory"
)

func init() {
	logrus.SetOutput(io.Discard)
}

type harness struct {
	t   *testing.T
	srv *httptest.Server
	reg *Registry
}

func newHarness(t *testing.T, store core.DrawingStore) *harness {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	reg := NewRegistry(session.WithLogger(l))
	static := fstest.MapFS{"index.html": {Data: []byte("<html>sketchpad</html>")}}
	srv := httptest.NewServer(NewRouter(Options{Registry: reg, Store: store, Static: static}))
	t.Cleanup(srv.Close)
	return &harness{t: t, srv: srv, reg: reg}
}

func (h *harness) do(method, path string, body io.Reader, contentType string) *http.Response {
	h.t.Helper()
	req, err := http.NewRequest(method, h.srv.URL+path, body)
	if err != nil {
		h.t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := h.srv.Client().Do(req)
	if err != nil {
		h.t.Fatal(err)
	}
	h.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (h *harness) postJSON(path string, v any) *http.Response {
	h.t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		h.t.Fatal(err)
	}
	return h.do(http.MethodPost, path, bytes.NewReader(b), "application/json")
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func (h *harness) create(w, ht int) string {
	h.t.Helper()
	resp := h.postJSON("/api/sessions", CreateSessionRequest{Width: w, Height: ht})
	if resp.StatusCode != http.StatusCreated {
		h.t.Fatalf("create session: status %d", resp.StatusCode)
	}
	return decode[CreateResponse](h.t, resp).ID
}

func (h *harness) pointer(id, typ string, x, y int) StatusResponse {
	h.t.Helper()
	resp := h.postJSON("/api/sessions/"+id+"/pointer", PointerRequest{Type: typ, X: x, Y: y})
	if resp.StatusCode != http.StatusOK {
		h.t.Fatalf("pointer %s: status %d", typ, resp.StatusCode)
	}
	return decode[StatusResponse](h.t, resp)
}

func (h *harness) export(id string) *image.RGBA {
	h.t.Helper()
	resp := h.do(http.MethodGet, "/api/sessions/"+id+"/export", nil, "")
	if resp.StatusCode != http.StatusOK {
		h.t.Fatalf("export: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatal(err)
	}
	img, err := canvas.Decode(data)
	if err != nil {
		h.t.Fatal(err)
	}
	return img
}

func pngOf(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCreateAndStatus(t *testing.T) {
	h := newHarness(t, nil)
	id := h.create(64, 48)
	resp := h.do(http.MethodGet, "/api/sessions/"+id, nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	st := decode[StatusResponse](t, resp)
	if st.Width != 64 || st.Height != 48 || st.Tool != "pencil" || st.Color != "#000000" || st.Size != 5 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestUnknownSession(t *testing.T) {
	h := newHarness(t, nil)
	for _, path := range []string{"/api/sessions/nope", "/api/sessions/nope/export"} {
		if resp := h.do(http.MethodGet, path, nil, ""); resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: status %d", path, resp.StatusCode)
		}
	}
}

func TestGestureUndoRedo(t *testing.T) {
	h := newHarness(t, nil)
	id := h.create(100, 100)
	blank := h.export(id)

	if resp := h.postJSON("/api/sessions/"+id+"/tool", ToolRequest{Tool: "rect"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("tool: status %d", resp.StatusCode)
	}
	h.pointer(id, "down", 10, 10)
	st := h.pointer(id, "move", 40, 30)
	if st.Preview == nil || st.Preview.Kind != "rectangle" {
		t.Fatalf("expected rectangle preview, got %+v", st.Preview)
	}
	st = h.pointer(id, "up", 50, 30)
	if st.Undo != 1 || st.Redo != 0 || st.State != "idle" {
		t.Fatalf("unexpected status after gesture %+v", st)
	}
	drawn := h.export(id)
	if drawn.RGBAAt(10, 10).A == 0 || drawn.RGBAAt(50, 30).A == 0 {
		t.Fatal("rectangle corners missing from export")
	}

	resp := h.postJSON("/api/sessions/"+id+"/undo", nil)
	hr := decode[HistoryResponse](t, resp)
	if !hr.Applied || hr.Status.Redo != 1 {
		t.Fatalf("undo response %+v", hr)
	}
	if !canvas.SamePixels(blank, h.export(id)) {
		t.Fatal("undo did not restore the blank canvas")
	}

	hr = decode[HistoryResponse](t, h.postJSON("/api/sessions/"+id+"/redo", nil))
	if !hr.Applied {
		t.Fatal("redo not applied")
	}
	if !canvas.SamePixels(drawn, h.export(id)) {
		t.Fatal("redo did not restore the drawing")
	}

	hr = decode[HistoryResponse](t, h.postJSON("/api/sessions/"+id+"/redo", nil))
	if hr.Applied {
		t.Fatal("redo on empty stack should not apply")
	}
}

func TestSettingsValidation(t *testing.T) {
	h := newHarness(t, nil)
	id := h.create(10, 10)
	tests := []struct {
		path string
		body any
		want int
	}{
		{"/size", SizeRequest{Size: 0}, http.StatusBadRequest},
		{"/size", SizeRequest{Size: 9}, http.StatusOK},
		{"/tool", ToolRequest{Tool: "spray"}, http.StatusBadRequest},
		{"/color", ColorRequest{Color: "nope"}, http.StatusBadRequest},
		{"/pointer", PointerRequest{Type: "hover"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if resp := h.postJSON("/api/sessions/"+id+tt.path, tt.body); resp.StatusCode != tt.want {
			t.Errorf("%s %+v: status %d, want %d", tt.path, tt.body, resp.StatusCode, tt.want)
		}
	}
}

func TestColorSelectsPencil(t *testing.T) {
	h := newHarness(t, nil)
	id := h.create(10, 10)
	h.postJSON("/api/sessions/"+id+"/tool", ToolRequest{Tool: "eraser"})
	st := decode[StatusResponse](t, h.postJSON("/api/sessions/"+id+"/color", ColorRequest{Color: "#ff0000"}))
	if st.Tool != "pencil" || st.Color != "#ff0000" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestExportHeaders(t *testing.T) {
	h := newHarness(t, nil)
	id := h.create(10, 10)
	resp := h.do(http.MethodGet, "/api/sessions/"+id+"/export", nil, "")
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="drawing.png"` {
		t.Fatalf("content disposition %q", cd)
	}
}

func TestImport(t *testing.T) {
	h := newHarness(t, nil)
	id := h.create(20, 20)
	h.pointer(id, "down", 15, 15)
	h.pointer(id, "move", 18, 18)
	h.pointer(id, "up", 18, 18)
	before := h.export(id)

	resp := h.do(http.MethodPut, "/api/sessions/"+id+"/import", strings.NewReader("garbage"), "image/png")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("malformed import: status %d", resp.StatusCode)
	}
	if !canvas.SamePixels(before, h.export(id)) {
		t.Fatal("malformed import changed the canvas")
	}

	src := image.NewRGBA(image.Rect(0, 0, 5, 5))
	red := color.RGBA{R: 255, A: 255}
	for i := 0; i < 5; i++ {
		src.SetRGBA(i, i, red)
	}
	resp = h.do(http.MethodPut, "/api/sessions/"+id+"/import", bytes.NewReader(pngOf(t, src)), "image/png")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import: status %d", resp.StatusCode)
	}
	st := decode[StatusResponse](t, resp)
	if st.Undo != 1 {
		t.Fatalf("import should not touch history, undo=%d", st.Undo)
	}
	got := h.export(id)
	if got.RGBAAt(2, 2) != red || got.RGBAAt(16, 16).A != 0 {
		t.Fatal("import did not replace the canvas at the origin")
	}
}

func TestFrameIncludesPreview(t *testing.T) {
	h := newHarness(t, nil)
	id := h.create(40, 40)
	h.postJSON("/api/sessions/"+id+"/tool", ToolRequest{Tool: "line"})
	h.pointer(id, "down", 0, 20)
	h.pointer(id, "move", 39, 20)

	resp := h.do(http.MethodGet, "/api/sessions/"+id+"/frame", nil, "")
	data, _ := io.ReadAll(resp.Body)
	frame, err := canvas.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if frame.RGBAAt(20, 20).A == 0 {
		t.Fatal("frame is missing the preview")
	}
	if h.export(id).RGBAAt(20, 20).A != 0 {
		t.Fatal("preview leaked into the surface")
	}
}

func TestDrawingsRoundTrip(t *testing.T) {
	h := newHarness(t, memory.NewStore())
	id := h.create(30, 30)
	h.pointer(id, "down", 1, 1)
	h.pointer(id, "move", 25, 25)
	h.pointer(id, "up", 25, 25)
	drawn := h.export(id)

	resp := h.postJSON("/api/sessions/"+id+"/drawings", SaveDrawingRequest{Name: "diag.png"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save: status %d", resp.StatusCode)
	}
	saved := decode[core.Drawing](t, resp)
	if saved.Name != "diag.png" || saved.Width != 30 {
		t.Fatalf("unexpected drawing %+v", saved)
	}

	list := decode[[]core.Drawing](t, h.do(http.MethodGet, "/api/drawings", nil, ""))
	if len(list) != 1 || list[0].ID != saved.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	resp = h.do(http.MethodGet, "/api/drawings/"+saved.ID, nil, "")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("get drawing: status %d", resp.StatusCode)
	}

	other := h.create(30, 30)
	resp = h.postJSON("/api/sessions/"+other+"/drawings/"+saved.ID+"/load", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load: status %d", resp.StatusCode)
	}
	if !canvas.SamePixels(drawn, h.export(other)) {
		t.Fatal("loaded drawing differs from the saved one")
	}

	if resp := h.do(http.MethodDelete, "/api/drawings/"+saved.ID, nil, ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	if resp := h.do(http.MethodGet, "/api/drawings/"+saved.ID, nil, ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted: status %d", resp.StatusCode)
	}
}

func TestDeleteSession(t *testing.T) {
	h := newHarness(t, nil)
	id := h.create(10, 10)
	if resp := h.do(http.MethodDelete, "/api/sessions/"+id, nil, ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	if h.reg.Len() != 0 {
		t.Fatal("session still registered")
	}
}

func TestStaticIndex(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(http.MethodGet, "/", nil, "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "sketchpad") {
		t.Fatalf("index: status %d body %q", resp.StatusCode, body)
	}
}

func TestRegistryExpire(t *testing.T) {
	reg := NewRegistry()
	now := time.Unix(1000, 0)
	reg.now = func() time.Time { return now }
	stale := reg.Create(4, 4)
	now = now.Add(time.Hour)
	fresh := reg.Create(4, 4)
	if n := reg.Expire(30 * time.Minute); n != 1 {
		t.Fatalf("expired %d sessions", n)
	}
	if err := reg.With(stale, func(*session.Session) error { return nil }); err != ErrSessionNotFound {
		t.Fatalf("stale session still present: %v", err)
	}
	if err := reg.With(fresh, func(*session.Session) error { return nil }); err != nil {
		t.Fatalf("fresh session missing: %v", err)
	}
}

func TestRegistryClampsSize(t *testing.T) {
	reg := NewRegistry()
	id := reg.Create(MaxCanvasSide*2, 10)
	_ = reg.With(id, func(s *session.Session) error {
		if s.Bounds().Dx() != MaxCanvasSide {
			t.Fatalf("width %d not clamped", s.Bounds().Dx())
		}
		return nil
	})
}
