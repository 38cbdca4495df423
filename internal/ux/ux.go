// Package ux renders kopi's user-facing CLI output: tables, banners, and
// error suggestion blocks. It generalizes the teacher's internal/utils
// (colors.go, jdk_utils.go's table helpers) and internal/ui/banner.go from
// their hand-rolled ANSI/Jenvy-specific shape to kopi's domain, built on the
// same github.com/fatih/color and github.com/mbndr/figlet4go the teacher's
// go.mod already names but, for colors.go, never actually used.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mbndr/figlet4go"
)

// IsTerminal reports whether w is a TTY that should receive ANSI color
// codes. Non-*os.File writers (buffers, pipes, the shim's captured-stderr
// test seam) are always treated as non-terminals, matching spec §7's "MUST
// NOT allocate color codes when stderr is not a TTY".
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Colorize wraps text in attrs when w is a terminal, and returns text
// unchanged otherwise. It is the direct generalization of
// internal/utils/colors.go's ColorText, swapped onto fatih/color so the
// escape sequences come from a library instead of hand-rolled constants.
func Colorize(w io.Writer, text string, attrs ...color.Attribute) string {
	if !IsTerminal(w) {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// Fprintln writes a Colorize'd line to w.
func Fprintln(w io.Writer, attrs []color.Attribute, format string, args ...interface{}) {
	fmt.Fprintln(w, Colorize(w, fmt.Sprintf(format, args...), attrs...))
}

// Banner renders the "kopi" wordmark with figlet4go, falling back to plain
// text if the font render fails, exactly as internal/ui/banner.go falls
// back to utils.ColorText for "Jenvy".
func Banner(w io.Writer) {
	render := figlet4go.NewAsciiRender()
	opts := figlet4go.NewRenderOptions()
	opts.FontName = "standard"

	out, err := render.RenderOpts("kopi", opts)
	if err != nil || out == "" {
		fmt.Fprintln(w, Colorize(w, "kopi — per-user JDK version manager", color.FgHiCyan))
		return
	}
	fmt.Fprint(w, Colorize(w, out, color.FgHiBlue))
	fmt.Fprintln(w, Colorize(w, "Switch JDKs per project, with shims that just work.", color.FgHiBlack))
}

// Table renders rows under headers as fixed-width columns, highlighting
// rows whose isHighlighted(row) is true in green. This is the JDK-agnostic
// generalization of the teacher's utils.PrintTable (which hardcodes a
// 5-column "Version/OS/Arch/LTS/Download" layout and an "LTS == ✅" row
// check); kopi reuses it for `kopi list`'s installed-JDK table and `kopi
// cache search`'s available-package table, with different headers and
// highlight predicates per call site.
func Table(w io.Writer, headers []string, rows [][]string, isHighlighted func(row []string) bool) {
	widths := columnWidths(headers, rows)

	fmt.Fprintln(w, Colorize(w, formatRow(headers, widths), color.FgHiYellow, color.Bold))
	fmt.Fprintln(w, Colorize(w, formatRow(ruleRow(widths), widths), color.FgHiWhite))

	for _, row := range rows {
		line := formatRow(row, widths)
		if isHighlighted != nil && isHighlighted(row) {
			fmt.Fprintln(w, Colorize(w, line, color.FgHiGreen))
		} else {
			fmt.Fprintln(w, line)
		}
	}
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func ruleRow(widths []int) []string {
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("─", w)
	}
	return rule
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		if i < len(widths) {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		} else {
			parts[i] = cell
		}
	}
	return strings.Join(parts, " ")
}
