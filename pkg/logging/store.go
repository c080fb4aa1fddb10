package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultStoreSize is the number of entries kept by a Store.
const DefaultStoreSize = 1000

// Entry is a log record kept in memory.
type Entry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Store keeps the most recent log entries so they can be queried.
type Store struct {
	mu      sync.Mutex
	size    int
	entries []Entry
}

// NewStore creates a store holding up to size entries.
func NewStore(size int) *Store {
	if size <= 0 {
		size = DefaultStoreSize
	}
	return &Store{size: size}
}

// Entries returns a copy of the stored entries, oldest first.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) add(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == s.size {
		s.entries = append(s.entries[:0:0], s.entries[1:]...)
	}
	s.entries = append(s.entries, e)
}

// Handler returns a slog.Handler recording into the store the entries
// enabled by level.
func (s *Store) Handler(level slog.Leveler) slog.Handler {
	return &storeHandler{store: s, level: level}
}

type storeHandler struct {
	store *Store
	level slog.Leveler
	attrs []slog.Attr
	group string
}

func (h *storeHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *storeHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = attrValue(a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		attrs[key] = attrValue(a.Value)
		return true
	})
	if len(attrs) == 0 {
		attrs = nil
	}
	h.store.add(Entry{
		Time:    r.Time,
		Level:   LevelName(r.Level),
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

func (h *storeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *storeHandler) WithGroup(name string) slog.Handler {
	next := *h
	if next.group != "" {
		name = next.group + "." + name
	}
	next.group = name
	return &next
}

func attrValue(v slog.Value) any {
	value := v.Resolve().Any()
	if err, ok := value.(error); ok {
		return err.Error()
	}
	return value
}
