package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/canvas"
)

var red = color.RGBA{R: 255, A: 255}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newSession(opts ...Option) *Session {
	return New(append([]Option{WithCanvasSize(120, 80), WithLogger(quietLogger())}, opts...)...)
}

func gesture(t *testing.T, s *Session, pts ...image.Point) {
	t.Helper()
	if err := s.PointerDown(pts[0]); err != nil {
		t.Fatalf("pointer down: %v", err)
	}
	for _, p := range pts[1 : len(pts)-1] {
		s.PointerMove(p)
	}
	s.PointerMove(pts[len(pts)-1])
	s.PointerUp(pts[len(pts)-1])
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDefaults(t *testing.T) {
	s := New(WithLogger(quietLogger()))
	if s.Tool() != ToolPencil || s.Size() != DefaultSize || s.Color() != DefaultColor {
		t.Fatalf("unexpected defaults: %v %d %v", s.Tool(), s.Size(), s.Color())
	}
	if s.State() != StateIdle || s.CanUndo() || s.CanRedo() {
		t.Fatal("expected idle session with empty history")
	}
	if b := s.Bounds(); b.Dx() != DefaultWidth || b.Dy() != DefaultHeight {
		t.Fatalf("unexpected bounds %v", b)
	}
}

func TestGestureRecordsOneUndoEntry(t *testing.T) {
	s := newSession()
	gesture(t, s, image.Pt(10, 10), image.Pt(20, 10), image.Pt(30, 20), image.Pt(40, 20))
	if u, r := s.Depth(); u != 1 || r != 0 {
		t.Fatalf("expected one undo entry, got %d/%d", u, r)
	}
	if s.Image().RGBAAt(20, 10) != DefaultColor {
		t.Fatal("pencil stroke missing")
	}
}

func TestUndoRestoresOriginal(t *testing.T) {
	s := newSession()
	orig := s.Snapshot()
	const n = 5
	for i := 0; i < n; i++ {
		gesture(t, s, image.Pt(5+i*10, 5), image.Pt(5+i*10, 60))
	}
	if canvas.SamePixels(orig, s.Image()) {
		t.Fatal("gestures did not change the surface")
	}
	for i := 0; i < n; i++ {
		ok, err := s.Undo()
		if !ok || err != nil {
			t.Fatalf("undo %d: %v %v", i, ok, err)
		}
	}
	if !canvas.SamePixels(orig, s.Image()) {
		t.Fatal("undo did not restore the original surface")
	}
	if ok, err := s.Undo(); ok || err != nil {
		t.Fatalf("undo on empty history: %v %v", ok, err)
	}
}

func TestUndoRedoInverse(t *testing.T) {
	s := newSession(WithTool(ToolRect))
	gesture(t, s, image.Pt(10, 10), image.Pt(50, 30))
	after := s.Snapshot()
	if _, err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	ok, err := s.Redo()
	if !ok || err != nil {
		t.Fatalf("redo: %v %v", ok, err)
	}
	if !canvas.SamePixels(after, s.Image()) {
		t.Fatal("redo is not the inverse of undo")
	}
	if ok, _ := s.Redo(); ok {
		t.Fatal("second redo should be a no-op")
	}
}

func TestNewGestureClearsRedo(t *testing.T) {
	s := newSession()
	gesture(t, s, image.Pt(1, 1), image.Pt(30, 30))
	if _, err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if !s.CanRedo() {
		t.Fatal("expected redo entry")
	}
	gesture(t, s, image.Pt(40, 40), image.Pt(60, 60))
	if s.CanRedo() {
		t.Fatal("gesture did not clear redo")
	}
	want := s.Snapshot()
	if ok, err := s.Redo(); ok || err != nil {
		t.Fatalf("redo after new gesture: %v %v", ok, err)
	}
	if !canvas.SamePixels(want, s.Image()) {
		t.Fatal("no-op redo changed the surface")
	}
}

func TestRectangleCorners(t *testing.T) {
	s := newSession(WithTool(ToolRect), WithBrushSize(1))
	gesture(t, s, image.Pt(10, 10), image.Pt(50, 30))
	img := s.Image()
	for _, p := range []image.Point{{10, 10}, {50, 30}, {50, 10}, {10, 30}} {
		if img.RGBAAt(p.X, p.Y) != DefaultColor {
			t.Errorf("corner %v not stroked", p)
		}
	}

	swapped := newSession(WithTool(ToolRect), WithBrushSize(1))
	gesture(t, swapped, image.Pt(50, 30), image.Pt(10, 10))
	if !canvas.SamePixels(img, swapped.Image()) {
		t.Fatal("swapped endpoints produced a different rectangle")
	}
}

func TestCircleRadius(t *testing.T) {
	s := New(WithCanvasSize(200, 200), WithTool(ToolCircle), WithBrushSize(1), WithLogger(quietLogger()))
	if err := s.PointerDown(image.Pt(100, 100)); err != nil {
		t.Fatal(err)
	}
	s.PointerMove(image.Pt(100, 150))
	sh, ok := s.Preview()
	if !ok || sh.Kind != canvas.ShapeCircle || sh.Radius() != 50 {
		t.Fatalf("unexpected preview %+v %v", sh, ok)
	}
	s.PointerUp(image.Pt(100, 150))
	img := s.Image()
	for _, p := range []image.Point{{100, 50}, {150, 100}, {50, 100}, {100, 150}} {
		if img.RGBAAt(p.X, p.Y) != DefaultColor {
			t.Errorf("expected circle pixel at %v", p)
		}
	}
	if img.RGBAAt(100, 100).A != 0 {
		t.Error("circle centre should stay empty")
	}
}

func TestDiscreteToolsWaitForRelease(t *testing.T) {
	for _, tool := range []Tool{ToolLine, ToolRect, ToolCircle} {
		t.Run(tool.String(), func(t *testing.T) {
			s := newSession(WithTool(tool))
			before := s.Snapshot()
			if err := s.PointerDown(image.Pt(20, 20)); err != nil {
				t.Fatal(err)
			}
			s.PointerMove(image.Pt(60, 50))
			if !canvas.SamePixels(before, s.Image()) {
				t.Fatal("discrete tool painted before release")
			}
			s.PointerUp(image.Pt(60, 50))
			if canvas.SamePixels(before, s.Image()) {
				t.Fatal("discrete tool did not paint on release")
			}
		})
	}
}

func TestPointerLeaveAbandonsShape(t *testing.T) {
	s := newSession(WithTool(ToolLine))
	before := s.Snapshot()
	if err := s.PointerDown(image.Pt(5, 5)); err != nil {
		t.Fatal(err)
	}
	s.PointerMove(image.Pt(50, 50))
	s.PointerLeave()
	s.PointerUp(image.Pt(50, 50))
	if !canvas.SamePixels(before, s.Image()) {
		t.Fatal("abandoned shape was drawn")
	}
	if s.State() != StateIdle || !s.CanUndo() {
		t.Fatal("leave should go idle and keep the undo entry")
	}
	if _, ok := s.Preview(); ok {
		t.Fatal("preview reported after leave")
	}
}

func TestMoveAndUpWhileIdle(t *testing.T) {
	s := newSession()
	before := s.Snapshot()
	s.PointerMove(image.Pt(10, 10))
	s.PointerUp(image.Pt(20, 20))
	s.PointerLeave()
	if !canvas.SamePixels(before, s.Image()) || s.CanUndo() {
		t.Fatal("idle pointer events changed state")
	}
}

func TestDownWhileGesturingRestarts(t *testing.T) {
	s := newSession(WithTool(ToolLine))
	if err := s.PointerDown(image.Pt(1, 1)); err != nil {
		t.Fatal(err)
	}
	if err := s.PointerDown(image.Pt(40, 40)); err != nil {
		t.Fatal(err)
	}
	s.PointerUp(image.Pt(60, 40))
	if s.Image().RGBAAt(50, 40) != DefaultColor {
		t.Fatal("second gesture not drawn from its own origin")
	}
	if s.Image().RGBAAt(20, 20).A != 0 {
		t.Fatal("first gesture should have been abandoned")
	}
}

func TestEraserPaintsWhite(t *testing.T) {
	s := newSession(WithTool(ToolEraser))
	gesture(t, s, image.Pt(10, 40), image.Pt(100, 40))
	if got := s.Image().RGBAAt(50, 40); got != DefaultEraser {
		t.Fatalf("expected eraser color, got %v", got)
	}
}

func TestSetColorSelectsPencil(t *testing.T) {
	s := newSession(WithTool(ToolEraser))
	s.SetColor(red)
	if s.Tool() != ToolPencil {
		t.Fatalf("expected pencil, got %v", s.Tool())
	}
	if s.Color() != red {
		t.Fatalf("expected red, got %v", s.Color())
	}
	if s.CanUndo() {
		t.Fatal("settings changes must not touch history")
	}
}

func TestSetSize(t *testing.T) {
	s := newSession()
	for _, n := range []int{0, -4} {
		if err := s.SetSize(n); !errors.Is(err, ErrInvalidSize) {
			t.Fatalf("size %d: expected ErrInvalidSize, got %v", n, err)
		}
	}
	if s.Size() != DefaultSize {
		t.Fatal("rejected size changed the session")
	}
	if err := s.SetSize(12); err != nil || s.Size() != 12 {
		t.Fatalf("SetSize(12): %v, size %d", err, s.Size())
	}
}

func TestBrushLargerThanCanvas(t *testing.T) {
	s := newSession()
	if err := s.SetSize(10000); err != nil {
		t.Fatal(err)
	}
	gesture(t, s, image.Pt(10, 10), image.Pt(11, 10))
	img := s.Image()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y).A == 0 {
				t.Fatalf("pixel (%d,%d) left empty", x, y)
			}
		}
	}
}

func TestStrokeToFarCoordinate(t *testing.T) {
	s := newSession(WithBrushSize(1))
	gesture(t, s, image.Pt(10, 10), image.Pt(200_000_000, 10))
	img := s.Image()
	if img.RGBAAt(119, 10).A == 0 || img.RGBAAt(10, 10).A == 0 {
		t.Fatal("stroke should run to the right edge")
	}
	if img.RGBAAt(9, 10).A != 0 || img.RGBAAt(60, 11).A != 0 {
		t.Fatal("stroke painted outside its path")
	}
	if !s.CanUndo() {
		t.Fatal("stroke not recorded")
	}
}

func TestSetToolRejectsUnknown(t *testing.T) {
	s := newSession()
	if err := s.SetTool(Tool(42)); !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
	if err := s.SetTool(ToolCircle); err != nil || s.Tool() != ToolCircle {
		t.Fatalf("SetTool(circle): %v", err)
	}
}

func TestImportReplacesAtOrigin(t *testing.T) {
	s := newSession()
	gesture(t, s, image.Pt(100, 70), image.Pt(110, 75))

	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.SetRGBA(x, y, red)
		}
	}
	undo, redo := s.Depth()
	if err := s.Import(pngBytes(t, src)); err != nil {
		t.Fatalf("import: %v", err)
	}
	img := s.Image()
	if img.RGBAAt(0, 0) != red || img.RGBAAt(9, 9) != red {
		t.Fatal("imported image not drawn at the origin")
	}
	if img.RGBAAt(10, 10).A != 0 || img.RGBAAt(105, 72).A != 0 {
		t.Fatal("import did not clear the rest of the surface")
	}
	if u, r := s.Depth(); u != undo || r != redo {
		t.Fatal("import touched the history")
	}
}

func TestImportWithHistory(t *testing.T) {
	s := newSession(WithImportHistory(true))
	gesture(t, s, image.Pt(1, 1), image.Pt(20, 20))
	if _, err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot()
	if err := s.Import(pngBytes(t, image.NewRGBA(image.Rect(0, 0, 5, 5)))); err != nil {
		t.Fatal(err)
	}
	if s.CanRedo() {
		t.Fatal("recorded import should clear redo")
	}
	if _, err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if !canvas.SamePixels(before, s.Image()) {
		t.Fatal("undo did not revert the import")
	}
}

func TestMalformedImportLeavesSurface(t *testing.T) {
	s := newSession()
	gesture(t, s, image.Pt(3, 3), image.Pt(60, 60))
	before := s.Snapshot()
	err := s.Import([]byte("not a png"))
	if !errors.Is(err, canvas.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if !canvas.SamePixels(before, s.Image()) {
		t.Fatal("failed import changed the surface")
	}
}

func TestOversizedImportLeavesSurface(t *testing.T) {
	s := newSession(WithImportHistory(true))
	gesture(t, s, image.Pt(3, 3), image.Pt(60, 60))
	before := s.Snapshot()
	data := pngBytes(t, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	// Claim 12000x12000 in the header and fix up its checksum.
	binary.BigEndian.PutUint32(data[16:], 12000)
	binary.BigEndian.PutUint32(data[20:], 12000)
	binary.BigEndian.PutUint32(data[29:], crc32.ChecksumIEEE(data[12:29]))
	if err := s.Import(data); !errors.Is(err, canvas.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if !canvas.SamePixels(before, s.Image()) {
		t.Fatal("rejected import changed the surface")
	}
	if _, err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if s.CanUndo() {
		t.Fatal("rejected import recorded a history entry")
	}
}

func TestExportDecodesToSurface(t *testing.T) {
	s := newSession()
	gesture(t, s, image.Pt(3, 3), image.Pt(60, 60))
	snap, err := s.Export()
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(snap.Bytes()))
	if err != nil {
		t.Fatalf("export is not a PNG: %v", err)
	}
	if img.Bounds() != s.Bounds() {
		t.Fatalf("export bounds %v, want %v", img.Bounds(), s.Bounds())
	}
	if s.State() != StateIdle || s.CanRedo() {
		t.Fatal("export changed state")
	}
}

func TestListenerEvents(t *testing.T) {
	var kinds []EventKind
	s := newSession(WithListener(func(e Event) { kinds = append(kinds, e.Kind) }))
	gesture(t, s, image.Pt(1, 1), image.Pt(9, 9))
	s.SetColor(red)
	seen := map[EventKind]bool{}
	for _, k := range kinds {
		seen[k] = true
	}
	for _, k := range []EventKind{EventHistory, EventSurface, EventSettings} {
		if !seen[k] {
			t.Errorf("missing %v event", k)
		}
	}
}

func TestParseTool(t *testing.T) {
	tests := []struct {
		in   string
		want Tool
	}{
		{"pencil", ToolPencil},
		{"Eraser", ToolEraser},
		{"line", ToolLine},
		{"rect", ToolRect},
		{"rectangle", ToolRect},
		{" circle ", ToolCircle},
	}
	for _, tt := range tests {
		got, err := ParseTool(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseTool(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseTool("spray"); !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}
