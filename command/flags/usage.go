// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package flags

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"strings"

	text "github.com/kr/text"
)

const maxLineLength = 72

// Usage renders the help text followed by the documented flags.
func Usage(txt string, flags *flag.FlagSet) string {
	var out bytes.Buffer
	out.WriteString(strings.TrimRight(txt, "\n"))
	out.WriteString("\n")
	if flags != nil {
		out.WriteString("\nCommand Options:\n\n")
		printFlags(&out, flags)
	}
	return strings.TrimRight(out.String(), "\n")
}

func printFlags(w io.Writer, f *flag.FlagSet) {
	f.VisitAll(func(f *flag.Flag) {
		example, _ := flag.UnquoteUsage(f)
		if example != "" {
			fmt.Fprintf(w, "  -%s=<%s>\n", f.Name, example)
		} else {
			fmt.Fprintf(w, "  -%s\n", f.Name)
		}

		indented := wrapAtLength(f.Usage, 5)
		fmt.Fprintf(w, "%s\n\n", indented)
	})
}

// wrapAtLength wraps the given text at the maxLineLength, taking into account
// any provided left padding.
func wrapAtLength(s string, pad int) string {
	wrapped := text.Wrap(s, maxLineLength-pad)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = strings.Repeat(" ", pad) + line
	}
	return strings.Join(lines, "\n")
}

// Merge copies every flag of src into dst.
func Merge(dst, src *flag.FlagSet) {
	if dst == nil {
		panic("dst cannot be nil")
	}
	if src == nil {
		return
	}
	src.VisitAll(func(f *flag.Flag) {
		dst.Var(f.Value, f.Name, f.Usage)
	})
}
