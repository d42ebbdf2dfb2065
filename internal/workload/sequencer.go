package workload

import (
	"math/rand"
	"sync/atomic"
)

// Sequencer chooses the next pool index each dispatch iteration.
type Sequencer interface {
	// Next returns the next pool index, or false when the sequencer has no
	// further indices to offer.
	Next() (int, bool)

	// Exhausted reports whether the sequencer will never produce another
	// index. Always false for random selection.
	Exhausted() bool

	// Position returns the current cursor position, or -1 when the
	// sequencer has no meaningful position.
	Position() int64
}

// RandomSequencer draws a uniformly random pool index each iteration.
type RandomSequencer struct {
	size int
}

// NewRandomSequencer creates a random sequencer over a pool of the given size.
func NewRandomSequencer(size int) *RandomSequencer {
	return &RandomSequencer{size: size}
}

func (s *RandomSequencer) Next() (int, bool) {
	return rand.Intn(s.size), true
}

func (s *RandomSequencer) Exhausted() bool {
	return false
}

func (s *RandomSequencer) Position() int64 {
	return -1
}

// SequentialSequencer walks the pool in order from a restart offset. The
// cursor is shared between the dispatch loop and the monitor's exhaustion
// check, so all mutation goes through atomic compare-and-swap.
type SequentialSequencer struct {
	size   int
	cursor atomic.Int64
}

// NewSequentialSequencer creates a sequential sequencer over a pool of the
// given size. Dispatch begins at restartIndex+1; pass -1 to start from the
// beginning of the pool.
func NewSequentialSequencer(size, restartIndex int) *SequentialSequencer {
	s := &SequentialSequencer{size: size}
	s.cursor.Store(int64(restartIndex))
	return s
}

func (s *SequentialSequencer) Next() (int, bool) {
	for {
		cur := s.cursor.Load()
		if cur+1 >= int64(s.size) {
			return 0, false
		}
		if s.cursor.CompareAndSwap(cur, cur+1) {
			return int(cur + 1), true
		}
	}
}

func (s *SequentialSequencer) Exhausted() bool {
	return s.cursor.Load()+1 >= int64(s.size)
}

func (s *SequentialSequencer) Position() int64 {
	return s.cursor.Load()
}

var (
	_ Sequencer = (*RandomSequencer)(nil)
	_ Sequencer = (*SequentialSequencer)(nil)
)
