package cli

import (
	"fmt"
	"strings"
)

// renderMarkdown formats a captured user/command view pair as a fenced
// shell code block, grounded on the original betterhist/views.py
// markdown_format.
func renderMarkdown(userView, commandView string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "```shell\n%s\n%s\n```", userView, commandView)
	return b.String()
}
