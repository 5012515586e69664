package device

import "sync"

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Record is any value that can live in a Registry. The key must be
// stable for the lifetime of the record and unique within one family.
type Record interface {
	Key() string
}

// Registry is the in-memory cache of last-known device state for one
// vendor family. Entries live only for the process lifetime; records
// are overwritten wholesale on each discovery or state refresh.
//
// A single coarse mutex serialises all operations. Device counts are
// small (tens, not thousands) so coarse locking costs nothing
// measurable and keeps the semantics easy to reason about.
//
// All methods are safe for concurrent use.
type Registry[R Record] struct {
	mu      sync.Mutex
	records map[string]R
	logger  Logger
}

// NewRegistry creates an empty registry.
func NewRegistry[R Record]() *Registry[R] {
	return &Registry[R]{
		records: make(map[string]R),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry[R]) SetLogger(logger Logger) {
	r.logger = logger
}

// Upsert inserts or overwrites the record at its derived key.
// The new value is visible to concurrent readers as soon as the lock
// is released. Upsert has no error conditions.
func (r *Registry[R]) Upsert(rec R) {
	r.mu.Lock()
	_, existed := r.records[rec.Key()]
	r.records[rec.Key()] = rec
	r.mu.Unlock()

	if !existed {
		r.logger.Debug("registry record added", "key", rec.Key())
	}
}

// Get retrieves the record stored under key.
// Returns ErrNotFound if the key is absent.
func (r *Registry[R]) Get(key string) (R, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[key]
	if !ok {
		var zero R
		return zero, ErrNotFound
	}
	return rec, nil
}

// List returns a snapshot copy of the current records. A racing Upsert
// during iteration by the caller may or may not be reflected; the
// snapshot itself is taken atomically under the lock. No ordering is
// guaranteed.
func (r *Registry[R]) List() []R {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]R, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out
}

// Keys returns a snapshot of the current keys.
func (r *Registry[R]) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.records))
	for k := range r.records {
		out = append(out, k)
	}
	return out
}

// Rename removes oldKey and reinserts the updated record under its
// newly derived key, atomically under the lock. Removal of an absent
// oldKey is a silent no-op (best-effort semantics); the insert always
// happens.
func (r *Registry[R]) Rename(oldKey string, rec R) {
	r.mu.Lock()
	delete(r.records, oldKey)
	r.records[rec.Key()] = rec
	r.mu.Unlock()

	r.logger.Debug("registry record renamed", "old_key", oldKey, "new_key", rec.Key())
}

// Replace swaps the entire contents of the registry for the given
// records. Used by cloud discovery, which returns the authoritative
// device list on every call.
func (r *Registry[R]) Replace(recs []R) {
	next := make(map[string]R, len(recs))
	for _, rec := range recs {
		next[rec.Key()] = rec
	}

	r.mu.Lock()
	r.records = next
	r.mu.Unlock()

	r.logger.Debug("registry replaced", "count", len(recs))
}

// Len returns the number of records currently cached.
func (r *Registry[R]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
