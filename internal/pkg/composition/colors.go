package composition

import "fmt"

// Add appends a fresh entry named after its position and returns it.
func (s *ColorSet) Add() ColorEntry {
	entry := ColorEntry{
		ID:    newID(),
		Value: DefaultColorValue,
		Name:  fmt.Sprintf("Color %d", len(*s)+1),
	}
	*s = append(*s, entry)
	return entry
}

// Remove deletes the entry with id. The last remaining entry cannot be removed.
func (s *ColorSet) Remove(id string) error {
	idx := s.index(id)
	if idx < 0 {
		return fmt.Errorf("%w: color %q", ErrNotFound, id)
	}
	if len(*s) <= 1 {
		return fmt.Errorf("%w: cannot remove the last color", ErrInvariantViolation)
	}
	out := make(ColorSet, 0, len(*s)-1)
	out = append(out, (*s)[:idx]...)
	*s = append(out, (*s)[idx+1:]...)
	return nil
}

// Update replaces the value of the entry with id.
func (s ColorSet) Update(id, value string) error {
	if !ValidColor(value) {
		return fmt.Errorf("%w: invalid color %q", ErrValidation, value)
	}
	idx := s.index(id)
	if idx < 0 {
		return fmt.Errorf("%w: color %q", ErrNotFound, id)
	}
	s[idx].Value = value
	return nil
}

// Rename changes the display label of the entry with id.
func (s ColorSet) Rename(id, name string) error {
	idx := s.index(id)
	if idx < 0 {
		return fmt.Errorf("%w: color %q", ErrNotFound, id)
	}
	s[idx].Name = name
	return nil
}

// Values returns the hex values in display order.
func (s ColorSet) Values() []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = e.Value
	}
	return out
}

func (s ColorSet) index(id string) int {
	for i, e := range s {
		if e.ID == id {
			return i
		}
	}
	return -1
}
