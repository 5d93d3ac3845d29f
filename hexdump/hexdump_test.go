package hexdump

import (
	"bytes"
	"strings"
	"testing"
)

func TestHelloLine(t *testing.T) {
	var out bytes.Buffer
	d := New(&out)

	if _, err := d.Write([]byte("Hello")); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	if !strings.HasPrefix(got, "00000000  48 65 6c 6c 6f") {
		t.Fatalf("unexpected prefix: %q", got)
	}
	if !strings.HasSuffix(got, "|Hello|\n") {
		t.Fatalf("unexpected suffix: %q", got)
	}
	if strings.Count(got, "\n") != 1 {
		t.Fatalf("expected exactly one line, got %q", got)
	}
}

func TestLineCountAndOffsetContinuity(t *testing.T) {
	var out bytes.Buffer
	d := New(&out)

	input := bytes.Repeat([]byte{0x41}, 33) // 3 lines: 16+16+1
	if _, err := d.Write(input); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != Lines(len(input)) {
		t.Fatalf("got %d lines, want %d", len(lines), Lines(len(input)))
	}
	if !strings.HasPrefix(lines[0], "00000000") {
		t.Fatalf("line 0 offset wrong: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "00000010") {
		t.Fatalf("line 1 offset wrong: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "00000020") {
		t.Fatalf("line 2 offset wrong: %q", lines[2])
	}
}

func TestNonPrintableRendersDot(t *testing.T) {
	var out bytes.Buffer
	d := New(&out)
	if _, err := d.Write([]byte{0x00, 0x1F, 0x20, 0x7E, 0x7F, 0xFF}); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, "|.. ~..|") {
		// sidebar is exactly the 6 input bytes rendered in order
		t.Fatalf("expected sidebar |.. ~..|: %q", got)
	}
	if !strings.Contains(got, "|..") {
		t.Fatalf("expected leading non-printables rendered as dots: %q", got)
	}
}

func TestResetOffset(t *testing.T) {
	var out bytes.Buffer
	d := New(&out)
	_, _ = d.Write(bytes.Repeat([]byte{1}, 16))
	d.ResetOffset()
	_, _ = d.Write([]byte{1})
	got := out.String()
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if !strings.HasPrefix(lines[1], "00000000") {
		t.Fatalf("ResetOffset did not restart counter: %q", lines[1])
	}
}
