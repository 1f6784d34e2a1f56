package vtrender

import "testing"

func TestRenderPlainText(t *testing.T) {
	got := Render([]byte("hello\r\nworld"), 80, 24)
	want := "hello\nworld"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderTrimsTrailingWhitespace(t *testing.T) {
	got := Render([]byte("abc   \r\n"), 80, 24)
	if got != "abc" {
		t.Errorf("Render() = %q, want %q", got, "abc")
	}
}

func TestRenderOmitsEmptyLines(t *testing.T) {
	got := Render([]byte("a\r\n\r\nb"), 10, 5)
	want := "a\nb"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderDeterministic(t *testing.T) {
	data := []byte("\x1b[1mbold\x1b[0m plain\r\n")
	a := Render(data, 80, 24)
	b := Render(data, 80, 24)
	if a != b {
		t.Errorf("Render() not deterministic: %q != %q", a, b)
	}
}

func TestRenderTolerantOfPrivateSGRMarker(t *testing.T) {
	// CSI "?" is an unusual private-mode marker that should be ignored
	// rather than corrupting subsequent glyph output.
	data := []byte("\x1b[?1mok\x1b[0m\r\n")
	got := Render(data, 80, 24)
	if got == "" {
		t.Errorf("Render() with private SGR marker produced empty output")
	}
}

func TestRenderRespectsGeometry(t *testing.T) {
	// A line longer than the column count must be wrapped/truncated by the
	// emulator, not overflow into extra output rows beyond `lines`.
	long := make([]byte, 0, 200)
	for i := 0; i < 200; i++ {
		long = append(long, 'x')
	}
	got := Render(long, 20, 3)
	lineCount := 1
	for _, c := range got {
		if c == '\n' {
			lineCount++
		}
	}
	if lineCount > 3 {
		t.Errorf("Render produced %d lines, want <= 3 (lines budget)", lineCount)
	}
}

func TestRenderEmptyInput(t *testing.T) {
	got := Render(nil, 80, 24)
	if got != "" {
		t.Errorf("Render(nil) = %q, want empty", got)
	}
}

func TestRenderInvalidUTF8SubstitutedSilently(t *testing.T) {
	data := []byte{'o', 'k', 0xff, 0xfe, '\r', '\n'}
	got := Render(data, 80, 24)
	if got == "" {
		t.Errorf("Render() with invalid UTF-8 produced empty output, want substituted glyphs")
	}
}
