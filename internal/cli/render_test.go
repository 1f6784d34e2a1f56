package cli

import (
	"strings"
	"testing"
)

func TestRenderMarkdownWrapsFencedShellBlock(t *testing.T) {
	got := renderMarkdown("ls\r", "a b c")
	if !strings.HasPrefix(got, "```shell\n") {
		t.Errorf("renderMarkdown() = %q, want it to start with a shell fence", got)
	}
	if !strings.HasSuffix(got, "```") {
		t.Errorf("renderMarkdown() = %q, want it to end with a closing fence", got)
	}
	if !strings.Contains(got, "ls\r") || !strings.Contains(got, "a b c") {
		t.Errorf("renderMarkdown() = %q, want it to contain both views", got)
	}
}
