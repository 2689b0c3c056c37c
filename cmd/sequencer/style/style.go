// Package style holds the terminal styles shared by the client commands.
// Styling is applied only when the destination is a terminal.
package style

import (
	"encoding/hex"
	"io"
	"os"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	Path   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	Value  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	Hash   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	Dim    = lipgloss.NewStyle().Faint(true)
	Title  = lipgloss.NewStyle().Bold(true).Underline(true)
	Failed = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Render styles text when w is a terminal and returns it unchanged otherwise.
func Render(w io.Writer, s lipgloss.Style, text string) string {
	if !IsTerminal(w) {
		return text
	}
	return s.Render(text)
}

// Printable reports whether value reads as text.
func Printable(value []byte) bool {
	if len(value) == 0 || !utf8.Valid(value) {
		return false
	}
	for _, r := range string(value) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// FormatValue renders a stored value as hex, followed by its text when it
// has one.
func FormatValue(value []byte) string {
	out := hex.EncodeToString(value)
	if out == "" {
		out = "(empty)"
	}
	if Printable(value) {
		out += " " + quoteText(value)
	}
	return out
}

func quoteText(value []byte) string {
	const maxText = 64
	if utf8.RuneCount(value) > maxText {
		runes := []rune(string(value))
		return `"` + string(runes[:maxText]) + `..."`
	}
	return `"` + string(value) + `"`
}
