package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/combitify/internal/models"
)

var (
	darkPalette  = NewPalette("#1DB954", "#1ED760", "#F15E6C", "#FFA42B", "#B3B3B3", "#FFFFFF")
	lightPalette = NewPalette("#117A37", "#0F7B3A", "#C2182B", "#B35C00", "#6A6A6A", "#191414")
)

// interface Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	cursor lipgloss.Style
	text   lipgloss.Style
}

var _ Painter = (*Palette)(nil)

func NewPalette(t, s, e, w, h, c string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		cursor: NewBold(t),
		text:   NewStyle(c),
	}
}

// ThemePalette returns the palette for theme.
func ThemePalette(theme models.Theme) *Palette {
	if theme == models.ThemeLight {
		return lightPalette
	}
	return darkPalette
}

func (p *Palette) On(s string, c lipgloss.Color) string {
	return p.text.Background(c).Render(s)
}

func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
