// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// styledReporter prints build progress, one line per report. Compile workers
// report concurrently, so lines are written under a lock.
type styledReporter struct {
	mu  sync.Mutex
	out io.Writer
}

func newStyledReporter(out io.Writer) *styledReporter {
	return &styledReporter{out: out}
}

func (r *styledReporter) Step(tool, detail string) {
	r.print(stepToolStyle, tool, detail)
}

func (r *styledReporter) BigStep(tool, detail string) {
	r.print(bigStepToolStyle, tool, detail)
}

func (r *styledReporter) print(style lipgloss.Style, tool, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %s\n", style.Render(tool), detail)
}
