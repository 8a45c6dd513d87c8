package feed

import (
	"sync"
	"time"

	"github.com/pharmarawasy-del/Delala/internal/utils"
	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/sirupsen/logrus"
)

// Store keeps one pager per visitor, keyed by the feed id carried in the
// visitor's cookie. Generations are scoped to a single visitor's browsing,
// so one visitor changing filters can never invalidate another visitor's
// in-flight load. Idle sessions are swept.
type Store struct {
	logger *logrus.Logger
	ads    AdLister

	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	done     chan struct{}
}

type sessionEntry struct {
	pager     *Pager
	touchedAt time.Time
}

func NewStore(logger *logrus.Logger, ads AdLister, ttl time.Duration) *Store {
	s := &Store{
		logger:   logger,
		ads:      ads,
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		done:     make(chan struct{}),
	}

	go s.sweep()

	return s
}

// Create starts a pager for a new visitor and returns its id.
func (s *Store) Create() (string, *Pager) {
	id := utils.NanoID()
	p := NewPager(s.logger, s.ads)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &sessionEntry{pager: p, touchedAt: time.Now()}

	return id, p
}

func (s *Store) Get(id string) (*Pager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, types.ErrFeedSessionNotFound
	}

	entry.touchedAt = time.Now()
	return entry.pager, nil
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
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.sessions {
		if now.Sub(entry.touchedAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
