package content

import (
	"fmt"
	"sort"
)

// OrderUpdate is one entry of a section order commit. The JSON names match
// the reorder endpoint.
type OrderUpdate struct {
	ID       string `json:"id" binding:"required"`
	Position int    `json:"nova_ordem"`
}

// SortSections sorts in place by ascending order, stable for equal values.
func SortSections(sections []Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].SortIndex < sections[j].SortIndex
	})
}

func SortBlocks(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].SortIndex < blocks[j].SortIndex
	})
}

// PublishedSections returns the published sections of in ascending order,
// each with its blocks sorted. The input is not modified. Applying it to its
// own output yields the same list.
func PublishedSections(in []Section) []Section {
	out := make([]Section, 0, len(in))
	for _, s := range in {
		if s.Status != StatusPublished {
			continue
		}
		blocks := make([]Block, len(s.Blocks))
		copy(blocks, s.Blocks)
		SortBlocks(blocks)
		s.Blocks = blocks
		out = append(out, s)
	}
	SortSections(out)
	return out
}

func SectionIDs(sections []Section) []string {
	ids := make([]string, 0, len(sections))
	for _, s := range sections {
		ids = append(ids, s.ID)
	}
	return ids
}

// MoveByID removes activeID and reinserts it at overID's index, returning a
// new slice. Unknown ids or active == over leave the order unchanged and
// report false.
func MoveByID(order []string, activeID, overID string) ([]string, bool) {
	from, to := indexOf(order, activeID), indexOf(order, overID)
	if from < 0 || to < 0 || from == to {
		return append([]string(nil), order...), false
	}
	return ArrayMove(order, from, to), true
}

// ArrayMove returns a copy of items with the element at from moved to to.
func ArrayMove[T any](items []T, from, to int) []T {
	out := make([]T, 0, len(items))
	out = append(out, items...)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{moved}, out[to:]...)...)
	return out
}

// OrderUpdates builds the full commit payload: every id with its 0-based,
// contiguous position.
func OrderUpdates(order []string) []OrderUpdate {
	out := make([]OrderUpdate, 0, len(order))
	for i, id := range order {
		out = append(out, OrderUpdate{ID: id, Position: i})
	}
	return out
}

// Diff lists the entries of working whose position differs from committed.
// An empty result means there is nothing to save.
func Diff(committed, working []string) []OrderUpdate {
	pos := make(map[string]int, len(committed))
	for i, id := range committed {
		pos[id] = i
	}
	var out []OrderUpdate
	for i, id := range working {
		if p, ok := pos[id]; !ok || p != i {
			out = append(out, OrderUpdate{ID: id, Position: i})
		}
	}
	return out
}

// ValidateOrderUpdates rejects empty batches, blank or duplicate ids and
// negative or repeated positions.
func ValidateOrderUpdates(updates []OrderUpdate) error {
	if len(updates) == 0 {
		return fmt.Errorf("%w: orderUpdates array is required", ErrInvalidOrder)
	}
	seen := make(map[string]bool, len(updates))
	taken := make(map[int]string, len(updates))
	for _, u := range updates {
		if u.ID == "" {
			return fmt.Errorf("%w: section id required", ErrInvalidOrder)
		}
		if seen[u.ID] {
			return fmt.Errorf("%w: duplicate section %s", ErrInvalidOrder, u.ID)
		}
		if u.Position < 0 {
			return fmt.Errorf("%w: negative position for %s", ErrInvalidOrder, u.ID)
		}
		if other, ok := taken[u.Position]; ok {
			return fmt.Errorf("%w: %s and %s both at position %d", ErrInvalidOrder, other, u.ID, u.Position)
		}
		taken[u.Position] = u.ID
		seen[u.ID] = true
	}
	return nil
}

func indexOf(items []string, id string) int {
	for i, v := range items {
		if v == id {
			return i
		}
	}
	return -1
}
