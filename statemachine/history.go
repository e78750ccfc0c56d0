package statemachine

import "time"

// WildcardState matches any source state in an Edge.
const WildcardState = "*"

// Edge is a declared, allowed transition.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to"   yaml:"to"`
}

// TransitionRecord records one completed transition.
type TransitionRecord struct {
	From string
	To   string
	// Tick is the number of ticks the machine had processed when the transition happened.
	Tick uint64
	At   time.Time
}

// transitionHistory is a bounded, oldest-first record of transitions.
type transitionHistory struct {
	limit   int
	records []TransitionRecord
}

func (h *transitionHistory) add(rec TransitionRecord) {
	if h.limit <= 0 {
		return
	}

	if len(h.records) >= h.limit {
		copy(h.records, h.records[1:])
		h.records = h.records[:len(h.records)-1]
	}

	h.records = append(h.records, rec)
}

func (h *transitionHistory) snapshot() []TransitionRecord {
	out := make([]TransitionRecord, len(h.records))
	copy(out, h.records)

	return out
}

// Path returns the sequence of states visited according to records, starting
// with the first record's source (if any).
func Path(records []TransitionRecord) []string {
	path := make([]string, 0, len(records)+1)

	for i, rec := range records {
		if i == 0 && rec.From != "" {
			path = append(path, rec.From)
		}

		path = append(path, rec.To)
	}

	return path
}
