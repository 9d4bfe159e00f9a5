// Package selection implements the rotation algorithms that decide which content item a module shows in an issue.
// Every function is pure: rotation state comes in as arguments and leaves as return values.
package selection

import (
	"math/rand/v2"
	"slices"
)

// Mode names an algorithm; values match the persisted selection modes
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeRandom     Mode = "random"
	ModePriority   Mode = "priority"
	ModeManual     Mode = "manual"
	ModeDefault    Mode = "default"
)

// Reasons reported alongside a Result
const (
	ReasonSelected     = "selected"
	ReasonNoneEligible = "none eligible"
	ReasonManual       = "manual mode: awaiting editor selection"
	ReasonUnknownMode  = "unknown selection mode"
)

// Candidate is the rotation view of one eligible content item
type Candidate struct {
	ID           uint
	DisplayOrder int
	Priority     int
	TimesUsed    int
}

// Used returns the candidate as it looks after one more use
func (c Candidate) Used() Candidate {
	c.TimesUsed++
	return c
}

// Result is the outcome of a selection; ItemID is nil when nothing was picked
type Result struct {
	ItemID *uint
	Reason string
}

// Selected reports whether an item was picked
func (r Result) Selected() bool {
	return r.ItemID != nil
}

// State is the module-level rotation state consumed and produced by the algorithms
type State struct {
	NextPosition int
}

// Rand is the subset of *rand.Rand used for random picks
type Rand interface {
	IntN(n int) int
}

func picked(c Candidate) Result {
	id := c.ID
	return Result{ItemID: &id, Reason: ReasonSelected}
}

func noneEligible() Result {
	return Result{Reason: ReasonNoneEligible}
}

// byDisplayOrder returns a sorted copy; ties fall back to id so equal orders stay deterministic
func byDisplayOrder(pool []Candidate) []Candidate {
	sorted := slices.Clone(pool)
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder - b.DisplayOrder
		}
		return compareID(a.ID, b.ID)
	})
	return sorted
}

func compareID(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Sequential picks the item at the cursor, else the next one after it, else wraps to the lowest display order
func Sequential(pool []Candidate, nextPosition int) Result {
	if len(pool) == 0 {
		return noneEligible()
	}

	sorted := byDisplayOrder(pool)
	// sorted ascending, so the first item at or past the cursor is the exact match when one exists
	for _, c := range sorted {
		if c.DisplayOrder >= nextPosition {
			return picked(c)
		}
	}
	return picked(sorted[0])
}

// NextPosition returns the cursor after the item at usedDisplayOrder was sent
func NextPosition(pool []Candidate, usedDisplayOrder int) int {
	if len(pool) == 0 {
		return 1
	}

	maxOrder := pool[0].DisplayOrder
	for _, c := range pool[1:] {
		if c.DisplayOrder > maxOrder {
			maxOrder = c.DisplayOrder
		}
	}

	next := usedDisplayOrder + 1
	if next > maxOrder {
		return 1
	}
	return next
}

// RandomWithoutRepeat picks uniformly among the items with the lowest usage count
func RandomWithoutRepeat(pool []Candidate, rng Rand) Result {
	if len(pool) == 0 {
		return noneEligible()
	}

	minTimesUsed := pool[0].TimesUsed
	for _, c := range pool[1:] {
		if c.TimesUsed < minTimesUsed {
			minTimesUsed = c.TimesUsed
		}
	}

	var plateau []Candidate
	for _, c := range byDisplayOrder(pool) {
		if c.TimesUsed == minTimesUsed {
			plateau = append(plateau, c)
		}
	}

	var idx int
	if rng != nil {
		idx = rng.IntN(len(plateau))
	} else {
		idx = rand.IntN(len(plateau))
	}
	return picked(plateau[idx])
}

// Priority picks by usage count ascending, then priority descending, then display order ascending
func Priority(pool []Candidate) Result {
	if len(pool) == 0 {
		return noneEligible()
	}

	sorted := slices.Clone(pool)
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		if a.TimesUsed != b.TimesUsed {
			return a.TimesUsed - b.TimesUsed
		}
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder - b.DisplayOrder
		}
		return compareID(a.ID, b.ID)
	})
	return picked(sorted[0])
}

// Manual never picks; the editor chooses
func Manual() Result {
	return Result{Reason: ReasonManual}
}

// Default picks a single item for families without rotation: highest priority, then lowest display order
func Default(pool []Candidate) Result {
	if len(pool) == 0 {
		return noneEligible()
	}

	best := pool[0]
	for _, c := range pool[1:] {
		switch {
		case c.Priority > best.Priority:
			best = c
		case c.Priority < best.Priority:
		case c.DisplayOrder < best.DisplayOrder:
			best = c
		case c.DisplayOrder == best.DisplayOrder && c.ID < best.ID:
			best = c
		}
	}
	return picked(best)
}

// Select dispatches to the algorithm for mode. Manual and unknown modes return no pick.
func Select(mode Mode, pool []Candidate, state State, rng Rand) Result {
	switch mode {
	case ModeSequential:
		return Sequential(pool, state.NextPosition)
	case ModeRandom:
		return RandomWithoutRepeat(pool, rng)
	case ModePriority:
		return Priority(pool)
	case ModeDefault:
		return Default(pool)
	case ModeManual:
		return Manual()
	default:
		return Result{Reason: ReasonUnknownMode}
	}
}

// Advance returns the rotation state after the item used was sent. Only sequential mode moves the cursor.
func Advance(mode Mode, pool []Candidate, used Candidate, state State) State {
	if mode != ModeSequential {
		return state
	}
	return State{NextPosition: NextPosition(pool, used.DisplayOrder)}
}

// Find returns the candidate with the given id
func Find(pool []Candidate, id uint) (Candidate, bool) {
	for _, c := range pool {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}
