package auth

import (
	"sync"

	"techtrust-backend/internal/domain"
)

// Event is an auth state change. Principal is nil for sign-out, and UserID then names
// the user whose session ended.
type Event struct {
	Principal *domain.Principal
	UserID    string
}

// SignedIn reports whether the event carries a principal.
func (e Event) SignedIn() bool { return e.Principal != nil }

// Broadcaster fans auth events out to subscribers.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function that removes it. Calling the returned
// function more than once is a no-op.
func (b *Broadcaster) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev to every current subscriber synchronously.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}
