package device

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
)

// testRecord is a minimal Record for registry tests.
type testRecord struct {
	ID    string
	Name  string
	State int
}

func (r testRecord) Key() string { return r.ID }

func TestRegistry_UpsertAndGet(t *testing.T) {
	reg := NewRegistry[testRecord]()

	reg.Upsert(testRecord{ID: "dev-1", Name: "Lamp", State: 0})

	got, err := reg.Get("dev-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Lamp" {
		t.Errorf("Name = %q, want %q", got.Name, "Lamp")
	}

	// Upsert overwrites wholesale.
	reg.Upsert(testRecord{ID: "dev-1", Name: "Lamp", State: 1})
	got, _ = reg.Get("dev-1")
	if got.State != 1 {
		t.Errorf("State = %d, want 1 after overwrite", got.State)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	reg := NewRegistry[testRecord]()

	_, err := reg.Get("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_ListContainsLatestValues(t *testing.T) {
	reg := NewRegistry[testRecord]()

	reg.Upsert(testRecord{ID: "a", State: 1})
	reg.Upsert(testRecord{ID: "b", State: 1})
	reg.Upsert(testRecord{ID: "c", State: 1})
	reg.Upsert(testRecord{ID: "b", State: 2}) // latest value wins

	list := reg.List()
	if len(list) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(list))
	}

	byKey := make(map[string]testRecord, len(list))
	for _, rec := range list {
		byKey[rec.ID] = rec
	}
	for _, key := range []string{"a", "b", "c"} {
		if _, ok := byKey[key]; !ok {
			t.Errorf("List() missing key %q", key)
		}
	}
	if byKey["b"].State != 2 {
		t.Errorf("record b State = %d, want latest value 2", byKey["b"].State)
	}
}

func TestRegistry_ListSnapshotIsolation(t *testing.T) {
	reg := NewRegistry[testRecord]()
	reg.Upsert(testRecord{ID: "a"})

	list := reg.List()
	reg.Upsert(testRecord{ID: "b"})

	// The snapshot taken before the second Upsert must not grow.
	if len(list) != 1 {
		t.Errorf("snapshot length = %d, want 1", len(list))
	}
}

func TestRegistry_Rename(t *testing.T) {
	reg := NewRegistry[testRecord]()
	reg.Upsert(testRecord{ID: "old-key", Name: "Before"})

	reg.Rename("old-key", testRecord{ID: "new-key", Name: "After"})

	if _, err := reg.Get("old-key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(old-key) error = %v, want ErrNotFound", err)
	}
	got, err := reg.Get("new-key")
	if err != nil {
		t.Fatalf("Get(new-key) error = %v", err)
	}
	if got.Name != "After" {
		t.Errorf("Name = %q, want updated record", got.Name)
	}
}

func TestRegistry_RenameMissingOldKeyStillInserts(t *testing.T) {
	reg := NewRegistry[testRecord]()

	// Removal of an absent key is a silent no-op; the insert happens.
	reg.Rename("never-existed", testRecord{ID: "k", Name: "X"})

	if _, err := reg.Get("k"); err != nil {
		t.Errorf("Get(k) error = %v, want record present", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestRegistry_Replace(t *testing.T) {
	reg := NewRegistry[testRecord]()
	reg.Upsert(testRecord{ID: "stale-1"})
	reg.Upsert(testRecord{ID: "stale-2"})

	reg.Replace([]testRecord{{ID: "fresh"}})

	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after Replace", reg.Len())
	}
	if _, err := reg.Get("stale-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale record survived Replace")
	}
	if _, err := reg.Get("fresh"); err != nil {
		t.Errorf("Get(fresh) error = %v", err)
	}
}

func TestRegistry_Keys(t *testing.T) {
	reg := NewRegistry[testRecord]()
	reg.Upsert(testRecord{ID: "b"})
	reg.Upsert(testRecord{ID: "a"})

	keys := reg.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry[testRecord]()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("dev-%d", j%10)
				reg.Upsert(testRecord{ID: key, State: n})
				reg.Get(key)  //nolint:errcheck // exercising concurrent reads
				reg.List()
			}
		}(i)
	}
	wg.Wait()

	if reg.Len() != 10 {
		t.Errorf("Len() = %d, want 10", reg.Len())
	}
}
