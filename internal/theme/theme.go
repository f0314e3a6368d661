package theme

import (
	"image/color"
)

// Theme defines the colors of the desktop window.
type Theme struct {
	Name string

	// General
	Background color.RGBA // Window background around the canvas
	Foreground color.RGBA // Main text color

	// Toolbar & status bar
	ToolbarBackground color.RGBA
	StatusBackground  color.RGBA
	StatusText        color.RGBA
	ShortcutText      color.RGBA

	// Tool buttons
	ButtonBackground       color.RGBA
	ButtonBackgroundHover  color.RGBA
	ButtonBackgroundActive color.RGBA
	ButtonText             color.RGBA
	ButtonTextActive       color.RGBA
	ButtonBorder           color.RGBA

	// Palette swatches
	SwatchBorder   color.RGBA
	SwatchSelected color.RGBA

	// Canvas
	CanvasBorder color.RGBA
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
}

// Default returns the hardcoded default light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:                   "Default",
		Background:             color.RGBA{220, 220, 220, 255},
		Foreground:             color.RGBA{0, 0, 0, 255},
		ToolbarBackground:      color.RGBA{210, 210, 210, 255},
		StatusBackground:       color.RGBA{200, 200, 200, 255},
		StatusText:             color.RGBA{0, 0, 0, 255},
		ShortcutText:           color.RGBA{60, 60, 60, 255},
		ButtonBackground:       color.RGBA{200, 200, 200, 255},
		ButtonBackgroundHover:  color.RGBA{180, 180, 180, 255},
		ButtonBackgroundActive: color.RGBA{150, 150, 150, 255},
		ButtonText:             color.RGBA{0, 0, 0, 255},
		ButtonTextActive:       color.RGBA{0, 0, 0, 255},
		ButtonBorder:           color.RGBA{0, 0, 0, 255},
		SwatchBorder:           color.RGBA{90, 90, 90, 255},
		SwatchSelected:         color.RGBA{255, 140, 0, 255},
		CanvasBorder:           color.RGBA{120, 120, 120, 255},
		CheckerLight:           color.RGBA{220, 220, 220, 255},
		CheckerDark:            color.RGBA{192, 192, 192, 255},
	}
}
