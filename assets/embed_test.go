package assets

import (
	"bytes"
	"io/fs"
	"testing"
)

func TestIndexReferencesScript(t *testing.T) {
	data, err := Index()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`src="app.js"`)) {
		t.Fatal("index.html does not load app.js")
	}
	if _, err := fs.Stat(Web(), "app.js"); err != nil {
		t.Fatalf("app.js not embedded: %v", err)
	}
}

func TestIconSVG(t *testing.T) {
	data, err := IconSVG()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("<svg")) {
		t.Fatal("unexpected icon data")
	}
}
