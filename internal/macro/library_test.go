package macro

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestLibraryAddGet(t *testing.T) {
	lib := NewLibrary()
	a := lib.Add(New(sampleEvents()[:2]...).Named("keys"))
	b := lib.Add(New(sampleEvents()[2:4]...).Named("click"))

	if a == b || a == uuid.Nil {
		t.Fatalf("ids = %s, %s", a, b)
	}
	m, err := lib.Get(b)
	if err != nil || m.Name != "click" {
		t.Errorf("Get() = %+v, %v", m, err)
	}
	if _, err := lib.Get(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}

	if last, ok := lib.Last(); !ok || last.Name != "click" {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
	if first, err := lib.At(0); err != nil || first.Name != "keys" {
		t.Errorf("At(0) = %+v, %v", first, err)
	}
	if _, err := lib.At(2); !errors.Is(err, ErrNotFound) {
		t.Errorf("At(2) error = %v, want ErrNotFound", err)
	}
}

func TestLibraryFindRenameRemove(t *testing.T) {
	lib := NewLibrary(New().Named("a"), New().Named("b"), New().Named("a"))

	_, id, err := lib.Find("a")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if id != lib.List()[0].ID {
		t.Error("Find() did not return the first match")
	}

	if err := lib.Rename(id, "renamed"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if _, _, err := lib.Find("renamed"); err != nil {
		t.Errorf("Find(renamed) error = %v", err)
	}

	if err := lib.Remove(id); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := lib.Remove(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
	if err := lib.Rename(id, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Rename(removed) error = %v, want ErrNotFound", err)
	}

	names := []string{}
	for _, info := range lib.List() {
		names = append(names, info.Name)
	}
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("names = %v, want [b a]", names)
	}
	if _, _, err := lib.Find("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(missing) error = %v", err)
	}
}

func TestLibraryReset(t *testing.T) {
	lib := NewLibrary(New().Named("old"))
	lib.Reset(New(sampleEvents()...).Named("new"))

	list := lib.List()
	if len(list) != 1 || list[0].Name != "new" || list[0].EventCount != 6 || list[0].Speed != 1.0 {
		t.Errorf("List() = %+v", list)
	}

	lib.Reset()
	if lib.Len() != 0 {
		t.Errorf("Len() = %d after Reset(), want 0", lib.Len())
	}
	if _, ok := lib.Last(); ok {
		t.Error("Last() on an empty library reported a macro")
	}
}

func TestLibraryConcurrent(t *testing.T) {
	lib := NewLibrary()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				id := lib.Add(New())
				lib.List()
				if j%2 == 0 {
					_ = lib.Remove(id)
				}
			}
		}()
	}
	wg.Wait()

	if lib.Len() != 100 {
		t.Errorf("Len() = %d, want 100", lib.Len())
	}
}
