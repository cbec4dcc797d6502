package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34d399"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#64748b", Dark: "#94a3b8"}

	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 2)
	styleHeading = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleLabel   = lipgloss.NewStyle().Foreground(colorDim)
	styleURL     = lipgloss.NewStyle().Bold(true).Underline(true)
)

type bannerInfo struct {
	URL  string
	File string
}

func renderBanner(info bannerInfo, styled bool) string {
	name := filepath.Base(info.File)
	if !styled {
		var b strings.Builder
		fmt.Fprintf(&b, "Sharing %s\n", name)
		fmt.Fprintf(&b, "Open %s on a device on the same network\n", info.URL)
		b.WriteString("Press Ctrl+C to stop\n")
		return b.String()
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		styleHeading.Render("Sharing "+name),
		"",
		styleLabel.Render("Open on a device on the same network:"),
		styleURL.Render(info.URL),
		"",
		styleLabel.Render("Press Ctrl+C to stop"),
	)
	return styleBox.Render(body) + "\n"
}

func writeBanner(w io.Writer, info bannerInfo) {
	fmt.Fprint(w, renderBanner(info, isTerminal(w)))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}
