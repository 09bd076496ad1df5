package render

import (
	"math/rand"
	"time"

	"album-slideshow/internal/store"
)

// Advancer owns the playback position and its interval timer. It is not
// safe for concurrent use on its own; the engine serializes access.
type Advancer struct {
	rng *rand.Rand
	now func() time.Time

	index int

	// Shuffled permutation of [0,count) and the cursor into it.
	order []int
	pos   int

	// Zero until the first advance call primes the timer.
	nextAdvanceAt time.Time
}

// NewAdvancer creates an advancer with its own random source.
func NewAdvancer() *Advancer {
	return &Advancer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Index returns the current playback index.
func (a *Advancer) Index() int {
	return a.index
}

// SetIndex overwrites the playback index. Used to restore the starting
// position after an exhausted orientation scan.
func (a *Advancer) SetIndex(i int) {
	a.index = i
}

// NextAdvanceAt returns when the next timed advance is due; zero when the
// timer has never been primed.
func (a *Advancer) NextAdvanceAt() time.Time {
	return a.nextAdvanceAt
}

// Clamp forces the index back into [0,count). The album list can shrink
// between renders.
func (a *Advancer) Clamp(count int) {
	if count <= 0 {
		a.index = 0
		return
	}
	if a.index >= count || a.index < 0 {
		a.index = 0
	}
}

// MaybeAdvance moves the playback position according to the timer and
// ordering rules, returning true when the index moved.
//
// The first call only primes the timer so the first displayed photo stays
// up for a full interval. force bypasses the timer and reschedules it.
func (a *Advancer) MaybeAdvance(count int, force bool, interval time.Duration, mode store.OrderMode) bool {
	if count <= 0 {
		a.index = 0
		return false
	}

	now := a.now()
	if !force {
		if a.nextAdvanceAt.IsZero() {
			a.nextAdvanceAt = now.Add(interval)
			return false
		}
		if now.Before(a.nextAdvanceAt) {
			return false
		}
	}
	a.nextAdvanceAt = now.Add(interval)

	a.index %= count

	if mode == store.OrderAlbum {
		a.index = (a.index + 1) % count
		return true
	}

	a.index = a.nextRandomIndex(count)
	return true
}

// nextRandomIndex draws the next index from the shuffled permutation,
// regenerating it when exhausted or when the album size changed. A fresh
// permutation never starts with the currently displayed index.
func (a *Advancer) nextRandomIndex(count int) int {
	if count <= 1 {
		a.order = []int{0}
		a.pos = 0
		return 0
	}

	if len(a.order) != count || a.pos >= len(a.order) {
		a.order = a.rng.Perm(count)
		a.pos = 0

		if a.order[0] == a.index {
			first := a.order[0]
			a.order = append(a.order[1:], first)
		}
	}

	idx := a.order[a.pos]
	a.pos++
	return idx
}
