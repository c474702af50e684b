package stats

import (
	"bytes"
	"testing"
)

func TestTableLinesAlignsColumns(t *testing.T) {
	tbl := Table{
		Headers:    []string{"Date", "WPM", "Tests"},
		Rows:       [][]string{{"2026-10-18", "42", "3"}, {"2026-10-19", "7", "12"}},
		RightAlign: map[int]bool{1: true, 2: true},
	}

	lines := tbl.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Date       WPM Tests" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "2026-10-18  42     3" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "2026-10-19   7    12" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestTableTrimsTrailingPadding(t *testing.T) {
	tbl := Table{
		Headers: []string{"Key", "Misses"},
		Rows:    [][]string{{"<space>", "3"}},
	}
	var buf bytes.Buffer
	if _, err := tbl.WriteTo(&buf); err != nil {
		t.Fatalf("write table: %v", err)
	}
	want := "Key     Misses\n<space> 3\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", buf.String(), want)
	}
}
