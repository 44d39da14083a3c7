package models

// SelectionSet is a set of playlist ids that remembers insertion order.
type SelectionSet struct {
	order []string
	index map[string]struct{}
}

// NewSelectionSet creates a SelectionSet containing ids.
func NewSelectionSet(ids ...string) *SelectionSet {
	s := &SelectionSet{index: make(map[string]struct{})}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id if absent.
func (s *SelectionSet) Add(id string) {
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
}

// Remove deletes id if present.
func (s *SelectionSet) Remove(id string) {
	if _, ok := s.index[id]; !ok {
		return
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Toggle adds id when absent and removes it when present. Returns whether id is now selected.
func (s *SelectionSet) Toggle(id string) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

// Has reports whether id is selected.
func (s *SelectionSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of selected ids.
func (s *SelectionSet) Len() int { return len(s.order) }

// IDs returns a copy of the selected ids in insertion order.
func (s *SelectionSet) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Clear deselects everything.
func (s *SelectionSet) Clear() {
	s.order = nil
	s.index = make(map[string]struct{})
}
