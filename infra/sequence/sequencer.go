// Package sequence provides monotonic identifier generation for order
// and trade numbering.
package sequence

import "sync/atomic"

// Sequencer generates strictly monotonic sequence IDs. IDs are never
// reused for the owner's lifetime, even when the owning book is
// cleared.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer that will issue start+1 first.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next sequence ID.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued ID.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}
