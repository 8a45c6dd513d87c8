package feed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/sirupsen/logrus"
)

func newTestStore(lister AdLister, ttl time.Duration) *Store {
	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil))
	return NewStore(logger, lister, ttl)
}

func TestStoreIsolatesVisitors(t *testing.T) {
	lister := &fakeLister{ads: append(ads("vehicles", 15), ads("furniture", 15)...)}
	s := newTestStore(lister, time.Minute)
	defer s.Close()

	_, visitorA := s.Create()
	_, visitorB := s.Create()

	pageA, err := visitorA.First(context.Background(), types.FeedFilter{Category: "vehicles"})
	if err != nil {
		t.Fatalf("visitor A first: %v", err)
	}

	// visitor B browsing a different filter must not invalidate A's feed
	if _, err := visitorB.First(context.Background(), types.FeedFilter{Category: "furniture"}); err != nil {
		t.Fatalf("visitor B first: %v", err)
	}

	pageA2, err := visitorA.Load(context.Background(), pageA.Generation, pageA.NextOffset)
	if err != nil {
		t.Fatalf("visitor A load-more after B's visit: %v", err)
	}
	for _, ad := range pageA2.Ads {
		if ad.Category != types.CategoryVehicles {
			t.Fatalf("visitor A received ad %s from another visitor's filter", ad.ID)
		}
	}
}

func TestStoreGetUnknownSession(t *testing.T) {
	s := newTestStore(&fakeLister{}, time.Minute)
	defer s.Close()

	if _, err := s.Get("missing"); !errors.Is(err, types.ErrFeedSessionNotFound) {
		t.Fatalf("expected feed session not found, got %v", err)
	}
}

func TestStoreExpiresIdleSessions(t *testing.T) {
	s := newTestStore(&fakeLister{}, 50*time.Millisecond)
	defer s.Close()

	id, _ := s.Create()
	s.expire(time.Now().Add(time.Minute))

	if _, err := s.Get(id); !errors.Is(err, types.ErrFeedSessionNotFound) {
		t.Fatal("idle feed session must be swept")
	}
}
