package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintBannerWithColor(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	printBanner(&buf, true)
	output := buf.String()

	// Gradient endpoints: bold cyan at the top, bold magenta toward the bottom
	if !strings.Contains(output, "\033[1;36m") {
		t.Fatal("expected bold cyan in colored banner output")
	}
	if !strings.Contains(output, "\033[1;35m") {
		t.Fatal("expected bold magenta in colored banner output")
	}

	// Every printed line must end with a reset so colors don't bleed into
	// the output that follows the banner.
	for i, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if !strings.HasSuffix(line, "\033[0m") {
			t.Fatalf("banner line %d missing trailing reset: %q", i, line)
		}
	}

	// A fragment of the "mssql mcp" art itself
	if !strings.Contains(output, `\__, |`) {
		t.Fatal("expected ASCII art fragment in banner output")
	}
}

func TestPrintBannerWithoutColor(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	printBanner(&buf, false)
	output := buf.String()

	if strings.Contains(output, "\033[") {
		t.Fatal("expected no ANSI escape codes in plain banner output")
	}
	if !strings.Contains(output, `| '_ ' _ \`) {
		t.Fatal("expected ASCII art fragment in plain banner output")
	}
}

func TestPrintBannerSameArtBothModes(t *testing.T) {
	t.Parallel()
	var colored, plain bytes.Buffer
	printBanner(&colored, true)
	printBanner(&plain, false)

	coloredLines := strings.Split(strings.TrimRight(colored.String(), "\n"), "\n")
	plainLines := strings.Split(strings.TrimRight(plain.String(), "\n"), "\n")
	if len(coloredLines) != len(plainLines) {
		t.Fatalf("line count differs: colored=%d plain=%d", len(coloredLines), len(plainLines))
	}

	// Stripping the escape codes from the colored output must leave exactly
	// the plain art.
	for i, line := range coloredLines {
		stripped := line
		for _, code := range []string{"\033[1;36m", "\033[1;96m", "\033[1;34m", "\033[1;35m", "\033[1;95m", "\033[0m"} {
			stripped = strings.ReplaceAll(stripped, code, "")
		}
		if stripped != plainLines[i] {
			t.Fatalf("line %d art differs after stripping color: %q != %q", i, stripped, plainLines[i])
		}
	}
}
