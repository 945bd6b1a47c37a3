package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Color palette - keeping it minimal and accessible.
var (
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("245") // Gray
	ColorSuccess   = lipgloss.Color("34")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("240") // Dark gray
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	successStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	warningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// Symbols for visual feedback.
const (
	SymbolCheck  = "✓"
	SymbolCross  = "✗"
	SymbolBullet = "•"
)

// Theme renders styled text, or plain text when color is disabled.
type Theme struct {
	color bool
}

// NewTheme creates a theme. Pass the result of ColorEnabled.
func NewTheme(color bool) Theme {
	return Theme{color: color}
}

func (t Theme) render(style lipgloss.Style, s string) string {
	if !t.color {
		return s
	}
	return style.Render(s)
}

func (t Theme) Title(s string) string { return t.render(titleStyle, s) }
func (t Theme) Success(s string) string { return t.render(successStyle, s) }
func (t Theme) Error(s string) string { return t.render(errorStyle, s) }
func (t Theme) Warning(s string) string { return t.render(warningStyle, s) }
func (t Theme) Muted(s string) string { return t.render(mutedStyle, s) }

// Table renders rows under headers. Without color it falls back to
// space-aligned plain columns so the output stays grep-friendly.
func (t Theme) Table(headers []string, rows [][]string) string {
	if !t.color {
		return plainTable(headers, rows)
	}
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return tbl.String() + "\n"
}

func plainTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	all := append([][]string{headers}, rows...)
	for _, row := range all {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for _, row := range all {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if i == len(row)-1 || i == len(widths)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-len(cell)+2))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
