// SPDX-License-Identifier: MPL-2.0

// Package report defines how build progress reaches the user.
package report

import "sync"

// Reporter receives user-facing progress lines. Step is used for individual
// actions such as compiling one file; BigStep for milestones such as linking.
// Implementations must be safe for concurrent use: compile workers report
// from their own goroutines.
type Reporter interface {
	Step(tool, detail string)
	BigStep(tool, detail string)
}

// Discard drops every report.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Step(string, string)    {}
func (discard) BigStep(string, string) {}

type (
	// Entry is one recorded report.
	Entry struct {
		Big    bool
		Tool   string
		Detail string
	}

	// Recorder keeps every report in memory, in arrival order.
	Recorder struct {
		mu      sync.Mutex
		entries []Entry
	}
)

func (r *Recorder) Step(tool, detail string) {
	r.add(Entry{Tool: tool, Detail: detail})
}

func (r *Recorder) BigStep(tool, detail string) {
	r.add(Entry{Big: true, Tool: tool, Detail: detail})
}

// Entries returns a copy of what was recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Tools returns the tool column of every entry, handy for asserting order.
func (r *Recorder) Tools() []string {
	entries := r.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Tool
	}
	return out
}

func (r *Recorder) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}
