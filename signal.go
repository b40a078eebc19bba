package arbor

// Handle allows removing a connected handler. The zero Handle is valid and
// Remove on it is a no-op.
type Handle struct {
	id     uint32
	remove func(uint32)
}

// Remove disconnects the handler so it no longer fires. Safe to call more
// than once and from inside the handler itself.
func (h Handle) Remove() {
	if h.remove == nil {
		return
	}
	h.remove(h.id)
}

type handlerEntry[F any] struct {
	id uint32
	fn F
}

// handlerList stores handlers of any function type. Removal is
// copy-on-write so an emission in progress keeps iterating the slice it
// started with.
type handlerList[F any] struct {
	entries []handlerEntry[F]
	nextID  uint32
}

func (l *handlerList[F]) add(fn F) Handle {
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, handlerEntry[F]{id: id, fn: fn})
	return Handle{id: id, remove: l.removeID}
}

func (l *handlerList[F]) removeID(id uint32) {
	for i := range l.entries {
		if l.entries[i].id == id {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return
		}
	}
}

func (l *handlerList[F]) len() int { return len(l.entries) }

func (l *handlerList[F]) clear() { l.entries = nil }

// Signal is a typed notification channel with any number of handlers.
// Handlers run synchronously, in connection order.
type Signal[T any] struct {
	list handlerList[func(T)]
}

// Connect registers fn and returns a handle that disconnects it.
func (s *Signal[T]) Connect(fn func(T)) Handle {
	return s.list.add(fn)
}

// Emit calls every connected handler with v.
func (s *Signal[T]) Emit(v T) {
	for _, e := range s.list.entries {
		e.fn(v)
	}
}

// Len returns the number of connected handlers.
func (s *Signal[T]) Len() int { return s.list.len() }

// Clear disconnects all handlers.
func (s *Signal[T]) Clear() { s.list.clear() }
