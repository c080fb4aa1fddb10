package config

import "sync"

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// listeners is an ordered list of change callbacks.
type listeners[T any] struct {
	mu   sync.Mutex
	next uint64
	subs []subscription[T]
}

// add registers fn and returns a function removing it. Removing twice is a
// no-op.
func (l *listeners[T]) add(fn func(T)) func() {
	l.mu.Lock()
	l.next++
	id := l.next
	l.subs = append(l.subs, subscription[T]{id: id, fn: fn})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *listeners[T]) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, sub := range l.subs {
		if sub.id == id {
			l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
			return
		}
	}
}

// emit calls every listener in registration order. Callbacks run outside the
// lock so they may subscribe or unsubscribe.
func (l *listeners[T]) emit(v T) {
	l.mu.Lock()
	subs := make([]subscription[T], len(l.subs))
	copy(subs, l.subs)
	l.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

func (l *listeners[T]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}
