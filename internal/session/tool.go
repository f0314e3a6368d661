package session

import (
	"fmt"
	"strings"

	"github.com/example/sketchpad/internal/canvas"
)

// Tool selects what a gesture does to the surface.
type Tool int

const (
	ToolPencil Tool = iota
	ToolEraser
	ToolLine
	ToolRect
	ToolCircle
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolPencil, ToolEraser, ToolLine, ToolRect, ToolCircle}

func (t Tool) String() string {
	switch t {
	case ToolPencil:
		return "pencil"
	case ToolEraser:
		return "eraser"
	case ToolLine:
		return "line"
	case ToolRect:
		return "rectangle"
	case ToolCircle:
		return "circle"
	default:
		return fmt.Sprintf("Tool(%d)", int(t))
	}
}

// Continuous reports whether the tool paints while the pointer moves rather
// than once on release.
func (t Tool) Continuous() bool {
	return t == ToolPencil || t == ToolEraser
}

// Valid reports whether t is one of the known tools.
func (t Tool) Valid() bool {
	return t >= ToolPencil && t <= ToolCircle
}

// shape maps a discrete tool to the primitive it commits.
func (t Tool) shape() (canvas.ShapeKind, bool) {
	switch t {
	case ToolLine:
		return canvas.ShapeLine, true
	case ToolRect:
		return canvas.ShapeRect, true
	case ToolCircle:
		return canvas.ShapeCircle, true
	}
	return 0, false
}

// ParseTool accepts a tool name or a common alias.
func ParseTool(s string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pencil", "pen", "draw", "brush":
		return ToolPencil, nil
	case "eraser", "erase", "rubber":
		return ToolEraser, nil
	case "line":
		return ToolLine, nil
	case "rect", "rectangle", "box":
		return ToolRect, nil
	case "circle":
		return ToolCircle, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTool, s)
}
