package appstate

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/mobile/event/key"
)

type promptResult int

const (
	promptEditing promptResult = iota
	promptSubmit
	promptCancel
)

// prompt is a single line text input shown over the canvas.
type prompt struct {
	label string
	text  string
}

// handle applies a key press to the prompt.
func (p *prompt) handle(e key.Event) promptResult {
	if e.Direction != key.DirPress {
		return promptEditing
	}
	switch e.Code {
	case key.CodeReturnEnter, key.CodeKeypadEnter:
		return promptSubmit
	case key.CodeEscape:
		return promptCancel
	case key.CodeDeleteBackspace:
		if p.text != "" {
			_, n := utf8.DecodeLastRuneInString(p.text)
			p.text = p.text[:len(p.text)-n]
		}
		return promptEditing
	}
	if unicode.IsPrint(e.Rune) && e.Modifiers&(key.ModControl|key.ModMeta) == 0 {
		p.text += string(e.Rune)
	}
	return promptEditing
}

func (p *prompt) String() string { return p.label + p.text + "|" }
