package ux

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestIsTerminalFalseForBuffer(t *testing.T) {
	var buf bytes.Buffer
	if IsTerminal(&buf) {
		t.Error("a bytes.Buffer should never report as a terminal")
	}
}

func TestColorizeLeavesPlainTextOnNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	got := Colorize(&buf, "hello", color.FgRed)
	if got != "hello" {
		t.Errorf("Colorize on non-terminal = %q, want unmodified %q", got, "hello")
	}
}

func TestTableRendersHeadersAndRows(t *testing.T) {
	var buf bytes.Buffer
	headers := []string{"Version", "Vendor", "LTS"}
	rows := [][]string{
		{"21.0.2", "temurin", "yes"},
		{"23.0.1", "temurin", "no"},
	}
	Table(&buf, headers, rows, func(row []string) bool { return row[2] == "yes" })

	out := buf.String()
	for _, want := range []string{"Version", "Vendor", "LTS", "21.0.2", "23.0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Table output missing %q:\n%s", want, out)
		}
	}
}

func TestTableHandlesEmptyRows(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []string{"A", "B"}, nil, nil)
	if !strings.Contains(buf.String(), "A") {
		t.Error("Table with no rows should still print headers")
	}
}

func TestBannerFallsBackToPlainTextOnNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	Banner(&buf)
	if buf.Len() == 0 {
		t.Error("Banner wrote nothing")
	}
}
