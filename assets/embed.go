package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"
)

// Embedded browser page and icon for Sketchpad.
//
//go:embed web/*.html web/*.js web/*.css web/*.svg
var embeddedWeb embed.FS

var (
	loadIconOnce sync.Once
	loadIconErr  error
	svgData      []byte
)

func loadIcon() {
	data, err := embeddedWeb.ReadFile("web/icon.svg")
	if err != nil {
		loadIconErr = err
		return
	}
	svgData = append([]byte(nil), data...)
}

// Web returns the static files served by the browser host, rooted at the
// directory holding index.html.
func Web() fs.FS {
	sub, err := fs.Sub(embeddedWeb, "web")
	if err != nil {
		panic(fmt.Sprintf("embedded web assets: %v", err))
	}
	return sub
}

// Index returns the drawing page.
func Index() ([]byte, error) {
	return embeddedWeb.ReadFile("web/index.html")
}

// IconSVG returns the SVG icon bytes.
func IconSVG() ([]byte, error) {
	loadIconOnce.Do(loadIcon)
	if loadIconErr != nil {
		return nil, loadIconErr
	}
	if len(svgData) == 0 {
		return nil, fmt.Errorf("svg icon not embedded")
	}
	out := make([]byte, len(svgData))
	copy(out, svgData)
	return out, nil
}
