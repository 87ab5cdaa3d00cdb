package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	blue    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
)

// Title renders a section heading.
func Title(s string) string { return cyan.Render(s) }

// Dim renders secondary text.
func Dim(s string) string { return dim.Render(s) }

// Warn renders a warning line.
func Warn(s string) string { return yellow.Render(s) }

// Good renders a success line.
func Good(s string) string { return green.Render(s) }

// Bad renders an error line.
func Bad(s string) string { return red.Render(s) }

// Value renders a highlighted value.
func Value(s string) string { return white.Render(s) }

// Rule renders a horizontal divider of width n.
func Rule(n int) string { return dimmer.Render(strings.Repeat("─", n)) }

// Sparkline compresses data into width block characters.
func Sparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 || v != v {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}
