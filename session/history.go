package session

import (
	"fmt"
	"strings"
)

// Entry is one recorded action and its result. Entries are immutable once
// appended.
type Entry struct {
	Seq    int    `json:"seq"`
	Action string `json:"action"`
	Result string `json:"result"`
}

// History is the append-only, session-scoped record of what the agent did
// and what happened. Entries are never pruned; only the rendered text may
// be truncated downstream.
//
// History is not safe for concurrent use. The session executes actions
// sequentially, so the log has a single writer.
type History struct {
	entries []Entry
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds an entry and returns its 1-based sequence number. It never
// fails.
func (h *History) Append(action, result string) int {
	seq := len(h.entries) + 1
	h.entries = append(h.entries, Entry{
		Seq:    seq,
		Action: action,
		Result: result,
	})
	return seq
}

// Render produces the textual rendering of all entries in append order.
// Repeated calls without interleaving appends yield identical output.
func (h *History) Render() string {
	var b strings.Builder
	for _, e := range h.entries {
		fmt.Fprintf(&b, "%d. action: %s\n   result: %s\n", e.Seq, e.Action, e.Result)
	}
	return b.String()
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the log.
func (h *History) Entries() []Entry {
	return append([]Entry(nil), h.entries...)
}
