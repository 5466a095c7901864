package macro

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Entry is a macro stored in a Library.
type Entry struct {
	ID    uuid.UUID
	Macro Macro
}

// EntryInfo summarizes a library entry for listings.
type EntryInfo struct {
	ID         uuid.UUID
	Name       string
	EventCount int
	Speed      float64
}

// Library is an ordered collection of macros, each identified by an ID
// assigned when it is added. Names need not be unique.
//
// Library is safe for concurrent use.
type Library struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewLibrary creates a library holding macros in order.
func NewLibrary(macros ...Macro) *Library {
	l := &Library{}
	for _, m := range macros {
		l.Add(m)
	}
	return l
}

// Add appends m and returns its ID.
func (l *Library) Add(m Macro) uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := uuid.New()
	l.entries = append(l.entries, Entry{ID: id, Macro: m})
	return id
}

// Get returns the macro with the given ID.
func (l *Library) Get(id uuid.UUID) (Macro, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e.Macro, nil
		}
	}
	return Macro{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Find returns the first macro with the given name.
func (l *Library) Find(name string) (Macro, uuid.UUID, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.Macro.Name == name {
			return e.Macro, e.ID, nil
		}
	}
	return Macro{}, uuid.Nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// At returns the macro at position i in insertion order.
func (l *Library) At(i int) (Macro, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.entries) {
		return Macro{}, fmt.Errorf("%w: index %d", ErrNotFound, i)
	}
	return l.entries[i].Macro, nil
}

// Last returns the most recently added macro.
func (l *Library) Last() (Macro, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return Macro{}, false
	}
	return l.entries[len(l.entries)-1].Macro, true
}

// Rename changes the name of the macro with the given ID.
func (l *Library) Rename(id uuid.UUID, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i].Macro.Name = name
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Remove deletes the macro with the given ID.
func (l *Library) Remove(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.entries)
	l.entries = slices.DeleteFunc(l.entries, func(e Entry) bool { return e.ID == id })
	if len(l.entries) == n {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Reset replaces the contents of the library with macros.
func (l *Library) Reset(macros ...Macro) {
	entries := make([]Entry, len(macros))
	for i, m := range macros {
		entries[i] = Entry{ID: uuid.New(), Macro: m}
	}
	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
}

// Len returns the number of macros.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Macros returns the macros in order.
func (l *Library) Macros() []Macro {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Macro, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Macro
	}
	return out
}

// List returns a summary of every entry in order.
func (l *Library) List() []EntryInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]EntryInfo, len(l.entries))
	for i, e := range l.entries {
		out[i] = EntryInfo{
			ID:         e.ID,
			Name:       e.Macro.Name,
			EventCount: e.Macro.Len(),
			Speed:      e.Macro.Speed,
		}
	}
	return out
}
