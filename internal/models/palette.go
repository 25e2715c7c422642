package models

import "strings"

// Color is a category background color from the palette, as a hex string
type Color string

// DefaultTextColor is used when a color is not part of the palette
const DefaultTextColor = "#000000"

// PaletteEntry is a named background color and its contrasting text color
type PaletteEntry struct {
	Name      string `json:"name"`
	Value     Color  `json:"value"`
	TextColor string `json:"text_color"`
}

// Palette is the fixed set of category colors
var Palette = []PaletteEntry{
	{Name: "Rose", Value: "#fecaca", TextColor: "#991b1b"},
	{Name: "Orange", Value: "#fed7aa", TextColor: "#9a3412"},
	{Name: "Yellow", Value: "#fef3c7", TextColor: "#92400e"},
	{Name: "Lime", Value: "#d9f99d", TextColor: "#365314"},
	{Name: "Green", Value: "#bbf7d0", TextColor: "#14532d"},
	{Name: "Teal", Value: "#a7f3d0", TextColor: "#134e4a"},
	{Name: "Blue", Value: "#bfdbfe", TextColor: "#1e40af"},
	{Name: "Indigo", Value: "#c7d2fe", TextColor: "#3730a3"},
	{Name: "Purple", Value: "#ddd6fe", TextColor: "#581c87"},
	{Name: "Pink", Value: "#fce7f3", TextColor: "#831843"},
}

// DefaultColor is the color preselected for a new category
func DefaultColor() Color {
	return Palette[0].Value
}

// Normalize lowercases and trims the hex value
func (c Color) Normalize() Color {
	return Color(strings.ToLower(strings.TrimSpace(string(c))))
}

// Valid reports whether c is a palette color
func (c Color) Valid() bool {
	_, ok := c.Entry()
	return ok
}

// Entry looks up the palette entry for c
func (c Color) Entry() (PaletteEntry, bool) {
	n := c.Normalize()
	for _, e := range Palette {
		if e.Value == n {
			return e, true
		}
	}
	return PaletteEntry{}, false
}

// TextColorFor returns the text color paired with a background color
func TextColorFor(c Color) string {
	if e, ok := c.Entry(); ok {
		return e.TextColor
	}
	return DefaultTextColor
}

// ParseColor accepts either a palette hex value or a palette name ("Blue")
func ParseColor(s string) (Color, error) {
	c := Color(s).Normalize()
	if c.Valid() {
		return c, nil
	}
	for _, e := range Palette {
		if strings.EqualFold(e.Name, strings.TrimSpace(s)) {
			return e.Value, nil
		}
	}
	return "", ErrInvalidColor
}
