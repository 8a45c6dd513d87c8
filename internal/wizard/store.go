package wizard

import (
	"sync"
	"time"

	"github.com/pharmarawasy-del/Delala/internal/utils"
	"github.com/pharmarawasy-del/Delala/pkg/types"
)

// Store keeps active wizards in memory, keyed by the draft id carried in
// the visitor's cookie. Idle drafts are swept so abandoned image payloads
// do not accumulate.
type Store struct {
	mu      sync.Mutex
	wizards map[string]*Wizard
	ttl     time.Duration
	done    chan struct{}
}

func NewStore(ttl time.Duration) *Store {
	s := &Store{
		wizards: make(map[string]*Wizard),
		ttl:     ttl,
		done:    make(chan struct{}),
	}

	go s.sweep()

	return s
}

func (s *Store) Create() *Wizard {
	w := New(utils.NanoID())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.wizards[w.ID()] = w

	return w
}

func (s *Store) Get(id string) (*Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wizards[id]
	if !ok {
		return nil, types.ErrDraftNotFound
	}

	return w, nil
}

// Discard removes the wizard and releases its previews.
func (s *Store) Discard(id string) {
	s.mu.Lock()
	w, ok := s.wizards[id]
	if ok {
		delete(s.wizards, id)
	}
	s.mu.Unlock()

	if ok {
		w.Release()
	}
}

func (s *Store) Close() {
	close(s.done)
}

func (s *Store) sweep() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.expire(now)
		}
	}
}

func (s *Store) expire(now time.Time) {
	var expired []*Wizard

	s.mu.Lock()
	for id, w := range s.wizards {
		if w.idleSince(now) > s.ttl {
			expired = append(expired, w)
			delete(s.wizards, id)
		}
	}
	s.mu.Unlock()

	for _, w := range expired {
		w.Release()
	}
}
