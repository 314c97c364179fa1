package main

import (
	"strings"
	"testing"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]column{leftColumn("Model"), rightColumn("Confidence")}, [][]string{
		{"gan_detector", "12.5%"},
		{"facial_forensics"},
	})
	for _, want := range []string{"Model", "Confidence", "gan_detector", "12.5%", "facial_forensics"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if strings.Contains(out, "MODEL") {
		t.Fatalf("headers should keep their case:\n%s", out)
	}
}

func TestRenderTableWithoutColumns(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}
