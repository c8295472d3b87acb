package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the contentgraph banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"                  _             _                         _     ", "#818cf8"},
		{"  ___ ___  _ __ | |_ ___ _ __ | |_ __ _ _ __ __ _ _ __ | |__  ", "#a78bfa"},
		{" / __/ _ \\| '_ \\| __/ _ \\ '_ \\| __/ _` | '__/ _` | '_ \\| '_ \\ ", "#c084fc"},
		{"| (_| (_) | | | | ||  __/ | | | || (_| | | | (_| | |_) | | | |", "#e879f9"},
		{" \\___\\___/|_| |_|\\__\\___|_| |_|\\__\\__, |_|  \\__,_| .__/|_| |_|", "#f472b6"},
		{"                                  |___/          |_|          ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "  %s\n\n", termenv.String("v"+strings.TrimSpace(version)).Faint())
}
