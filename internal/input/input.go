// Package input decodes raw key-state reports into discrete press and
// release transitions. The device reports the full panel state every
// time; the tracker remembers the previous state and emits only changes.
package input

// Transition is one key changing state.
type Transition struct {
	Key     int // logical index
	Pressed bool
}

// Tracker holds per-key state for one device session. It is not safe for
// concurrent use; the report poll loop is its only caller.
type Tracker struct {
	offset    int // bytes to skip at the start of a report
	toLogical func(native int) int
	state     []bool
}

// New returns a tracker for keys keys whose state bytes begin at offset
// within a raw report. toLogical maps native key order back to the
// caller-facing numbering.
func New(keys, offset int, toLogical func(int) int) *Tracker {
	return &Tracker{
		offset:    offset,
		toLogical: toLogical,
		state:     make([]bool, keys),
	}
}

// Apply consumes one raw input report and returns the transitions it
// implies, in native key order. Reports too short to carry the full panel
// state are ignored. The final report byte is padding and never read.
func (t *Tracker) Apply(raw []byte) []Transition {
	if len(raw) < t.offset+len(t.state)+1 {
		return nil
	}
	keys := raw[t.offset : t.offset+len(t.state)]

	var transitions []Transition
	for i, b := range keys {
		pressed := b != 0
		if pressed == t.state[i] {
			continue
		}
		t.state[i] = pressed
		transitions = append(transitions, Transition{
			Key:     t.toLogical(i),
			Pressed: pressed,
		})
	}
	return transitions
}
