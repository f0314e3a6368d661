package server

import (
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/canvas"
	"github.com/example/sketchpad/internal/core"
	frame "github.com/example/sketchpad/internal/render"
	"github.com/example/sketchpad/internal/session"
	"github.com/example/sketchpad/internal/style"
)

// MaxImportBytes bounds uploaded image bodies.
const MaxImportBytes = 32 << 20

type (
	CreateSessionRequest struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}

	CreateResponse struct {
		ID string `json:"id"`
	}

	PointerRequest struct {
		Type string `json:"type"`
		X    int    `json:"x"`
		Y    int    `json:"y"`
	}

	ToolRequest struct {
		Tool string `json:"tool"`
	}

	ColorRequest struct {
		Color string `json:"color"`
	}

	SizeRequest struct {
		Size int `json:"size"`
	}

	SaveDrawingRequest struct {
		Name string `json:"name"`
	}

	StatusResponse struct {
		ID      string `json:"id"`
		Tool    string `json:"tool"`
		Color   string `json:"color"`
		Size    int    `json:"size"`
		State   string `json:"state"`
		Undo    int    `json:"undo"`
		Redo    int    `json:"redo"`
		Width   int    `json:"width"`
		Height  int    `json:"height"`
		Preview *Shape `json:"preview,omitempty"`
	}

	HistoryResponse struct {
		Applied bool           `json:"applied"`
		Status  StatusResponse `json:"status"`
	}

	Shape struct {
		Kind   string `json:"kind"`
		FromX  int    `json:"fromX"`
		FromY  int    `json:"fromY"`
		ToX    int    `json:"toX"`
		ToY    int    `json:"toY"`
		Color  string `json:"color"`
		Width  int    `json:"width"`
		Radius int    `json:"radius,omitempty"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}
)

func statusOf(id string, s *session.Session) StatusResponse {
	undo, redo := s.Depth()
	b := s.Bounds()
	st := StatusResponse{
		ID:     id,
		Tool:   s.Tool().String(),
		Color:  style.FormatHex(s.Color()),
		Size:   s.Size(),
		State:  s.State().String(),
		Undo:   undo,
		Redo:   redo,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
	if sh, ok := s.Preview(); ok {
		st.Preview = &Shape{
			Kind:  sh.Kind.String(),
			FromX: sh.From.X, FromY: sh.From.Y,
			ToX: sh.To.X, ToY: sh.To.Y,
			Color: style.FormatHex(sh.Color),
			Width: sh.Width,
		}
		if sh.Kind == canvas.ShapeCircle {
			st.Preview.Radius = int(sh.Radius() + 0.5)
		}
	}
	return st
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

// sessionError maps session and decode failures onto HTTP statuses.
func sessionError(w http.ResponseWriter, r *http.Request, err error) {
	log := logrus.WithField("path", r.URL.Path).WithError(err)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, r, http.StatusNotFound, "session not found")
	case errors.Is(err, canvas.ErrDecode):
		log.Warn("Image could not be decoded")
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, session.ErrInvalidSize), errors.Is(err, session.ErrUnknownTool), errors.Is(err, errBadRequest):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		log.Error("Session operation failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// HandleCreateSession starts a new drawing session.
func HandleCreateSession(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if r.ContentLength != 0 {
			if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, r, http.StatusBadRequest, "invalid request body")
				return
			}
		}
		if req.Width < 0 || req.Height < 0 {
			writeError(w, r, http.StatusBadRequest, "canvas size must not be negative")
			return
		}
		id := reg.Create(req.Width, req.Height)
		logrus.WithField("session_id", id).Info("Session created")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateResponse{ID: id})
	}
}

// HandleGetSession reports the session status.
func HandleGetSession(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var st StatusResponse
		if err := reg.With(id, func(s *session.Session) error {
			st = statusOf(id, s)
			return nil
		}); err != nil {
			sessionError(w, r, err)
			return
		}
		render.JSON(w, r, st)
	}
}

// HandleDeleteSession drops a session.
func HandleDeleteSession(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := reg.Delete(id); err != nil {
			sessionError(w, r, err)
			return
		}
		logrus.WithField("session_id", id).Info("Session deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

// mutate decodes a JSON body into req, applies fn under the session lock and
// answers with the new status.
func mutate[T any](reg *Registry, fn func(*session.Session, T) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req T
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
		var st StatusResponse
		err := reg.With(id, func(s *session.Session) error {
			if err := fn(s, req); err != nil {
				return err
			}
			st = statusOf(id, s)
			return nil
		})
		if err != nil {
			sessionError(w, r, err)
			return
		}
		render.JSON(w, r, st)
	}
}

// HandlePointer feeds a pointer event to the session.
func HandlePointer(reg *Registry) http.HandlerFunc {
	return mutate(reg, func(s *session.Session, req PointerRequest) error {
		p := image.Pt(req.X, req.Y)
		switch strings.ToLower(req.Type) {
		case "down":
			return s.PointerDown(p)
		case "move":
			s.PointerMove(p)
		case "up":
			s.PointerUp(p)
		case "leave":
			s.PointerLeave()
		default:
			return badRequest("unknown pointer event %q", req.Type)
		}
		return nil
	})
}

// HandleTool selects a tool.
func HandleTool(reg *Registry) http.HandlerFunc {
	return mutate(reg, func(s *session.Session, req ToolRequest) error {
		t, err := session.ParseTool(req.Tool)
		if err != nil {
			return err
		}
		return s.SetTool(t)
	})
}

// HandleColor sets the stroke color, which also selects the pencil.
func HandleColor(reg *Registry) http.HandlerFunc {
	return mutate(reg, func(s *session.Session, req ColorRequest) error {
		c, err := style.ParseColor(req.Color)
		if err != nil {
			return badRequest("%v", err)
		}
		s.SetColor(c)
		return nil
	})
}

// HandleSize sets the stroke width.
func HandleSize(reg *Registry) http.HandlerFunc {
	return mutate(reg, func(s *session.Session, req SizeRequest) error {
		return s.SetSize(req.Size)
	})
}

func handleHistory(reg *Registry, undo bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var resp HistoryResponse
		err := reg.With(id, func(s *session.Session) error {
			var err error
			if undo {
				resp.Applied, err = s.Undo()
			} else {
				resp.Applied, err = s.Redo()
			}
			if err != nil {
				return err
			}
			resp.Status = statusOf(id, s)
			return nil
		})
		if err != nil {
			sessionError(w, r, err)
			return
		}
		render.JSON(w, r, resp)
	}
}

// HandleUndo reverts the last change. An empty history answers applied=false.
func HandleUndo(reg *Registry) http.HandlerFunc { return handleHistory(reg, true) }

// HandleRedo reapplies the last undone change.
func HandleRedo(reg *Registry) http.HandlerFunc { return handleHistory(reg, false) }

func writePNG(w http.ResponseWriter, data []byte, attachment string) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if attachment != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment))
	}
	if _, err := w.Write(data); err != nil {
		logrus.WithError(err).Debug("Failed to write image response")
	}
}

// HandleExport downloads the canvas as drawing.png.
func HandleExport(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var snap canvas.Snapshot
		err := reg.With(id, func(s *session.Session) error {
			var err error
			snap, err = s.Export()
			return err
		})
		if err != nil {
			sessionError(w, r, err)
			return
		}
		writePNG(w, snap.Bytes(), "drawing.png")
	}
}

// HandleFrame returns the canvas with the pending shape preview painted on a
// copy.
func HandleFrame(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var img *image.RGBA
		err := reg.With(id, func(s *session.Session) error {
			var opts frame.Options
			if sh, ok := s.Preview(); ok {
				opts.Preview = &sh
			}
			img = frame.Compose(s.Image(), opts)
			return nil
		})
		if err != nil {
			sessionError(w, r, err)
			return
		}
		snap, err := canvas.Encode(img)
		if err != nil {
			sessionError(w, r, err)
			return
		}
		writePNG(w, snap.Bytes(), "")
	}
}

// HandleImport replaces the canvas with the uploaded image body.
func HandleImport(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImportBytes))
		if err != nil {
			writeError(w, r, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		var st StatusResponse
		err = reg.With(id, func(s *session.Session) error {
			if err := s.Import(data); err != nil {
				return err
			}
			st = statusOf(id, s)
			return nil
		})
		if err != nil {
			sessionError(w, r, err)
			return
		}
		render.JSON(w, r, st)
	}
}

// HandleSaveDrawing stores the session's export in the drawing store.
func HandleSaveDrawing(reg *Registry, store core.DrawingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req SaveDrawingRequest
		if r.ContentLength != 0 {
			if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, r, http.StatusBadRequest, "invalid request body")
				return
			}
		}
		var snap canvas.Snapshot
		err := reg.With(id, func(s *session.Session) error {
			var err error
			snap, err = s.Export()
			return err
		})
		if err != nil {
			sessionError(w, r, err)
			return
		}
		d, err := store.Save(r.Context(), req.Name, snap.Bytes())
		if err != nil {
			logrus.WithError(err).Error("Failed to save drawing")
			writeError(w, r, http.StatusInternalServerError, "failed to save drawing")
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, d)
	}
}

// HandleLoadDrawing imports a stored drawing into the session.
func HandleLoadDrawing(reg *Registry, store core.DrawingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		d, err := store.Get(r.Context(), chi.URLParam(r, "drawingId"))
		if err != nil {
			drawingError(w, r, err)
			return
		}
		var st StatusResponse
		err = reg.With(id, func(s *session.Session) error {
			if err := s.Import(d.Data); err != nil {
				return err
			}
			st = statusOf(id, s)
			return nil
		})
		if err != nil {
			sessionError(w, r, err)
			return
		}
		render.JSON(w, r, st)
	}
}

func drawingError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidID) {
		writeError(w, r, http.StatusNotFound, "drawing not found")
		return
	}
	logrus.WithError(err).Error("Drawing store failed")
	writeError(w, r, http.StatusInternalServerError, "drawing store failed")
}

// HandleListDrawings lists stored drawings.
func HandleListDrawings(store core.DrawingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context())
		if err != nil {
			drawingError(w, r, err)
			return
		}
		if list == nil {
			list = []*core.Drawing{}
		}
		render.JSON(w, r, list)
	}
}

// HandleGetDrawing returns the PNG of a stored drawing.
func HandleGetDrawing(store core.DrawingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := store.Get(r.Context(), chi.URLParam(r, "drawingId"))
		if err != nil {
			drawingError(w, r, err)
			return
		}
		writePNG(w, d.Data, d.Name)
	}
}

// HandleDeleteDrawing removes a stored drawing.
func HandleDeleteDrawing(store core.DrawingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "drawingId")); err != nil {
			drawingError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
