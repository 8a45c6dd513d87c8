package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/sirupsen/logrus"
)

// PageSize is how many ads a single feed request returns.
const PageSize = 10

// ErrStalePage marks a load that raced a filter change. Its results belong
// to the previous filter and must be discarded, not rendered.
var ErrStalePage = errors.New("page belongs to a superseded filter")

type AdLister interface {
	Ads(ctx context.Context, filter types.FeedFilter, offset, limit uint64) ([]*types.Ad, error)
}

// Page is one feed slice plus the cursor for the next request.
type Page struct {
	Ads        []*types.Ad
	Filter     types.FeedFilter
	NextOffset uint64
	HasMore    bool
	Generation uint64
}

// Pager serves the browse feed in fixed pages. Each filter change starts a
// new generation; a load carrying an older generation token returns
// ErrStalePage so responses that arrive out of order cannot corrupt the feed.
type Pager struct {
	logger *logrus.Logger
	ads    AdLister

	mu         sync.Mutex
	filter     types.FeedFilter
	generation uint64
}

func NewPager(logger *logrus.Logger, ads AdLister) *Pager {
	return &Pager{
		logger: logger,
		ads:    ads,
	}
}

// Reset switches the feed to a new filter and returns the generation token
// for subsequent loads. Resetting with the current filter still bumps the
// generation, which doubles as a pull-to-refresh.
func (p *Pager) Reset(filter types.FeedFilter) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.filter = filter
	p.generation++

	return p.generation
}

func (p *Pager) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// First loads the opening page for the given filter, resetting the pager.
// A fresh load defines the new generation rather than racing it, so First
// never reports a stale page; a Reset that slips in mid-fetch only
// invalidates this page's load-more links, never the page itself.
func (p *Pager) First(ctx context.Context, filter types.FeedFilter) (*Page, error) {
	generation := p.Reset(filter)

	ads, err := p.ads.Ads(ctx, filter, 0, PageSize)
	if err != nil {
		return nil, err
	}

	return &Page{
		Ads:        ads,
		Filter:     filter,
		NextOffset: uint64(len(ads)),
		HasMore:    len(ads) == PageSize,
		Generation: generation,
	}, nil
}

// Load fetches the page starting at offset. HasMore is false on a short
// page; a short page ends the feed even when a concurrent insert would have
// made the next request non-empty.
func (p *Pager) Load(ctx context.Context, generation, offset uint64) (*Page, error) {

	p.mu.Lock()
	filter := p.filter
	current := p.generation
	p.mu.Unlock()

	if generation != current {
		return nil, ErrStalePage
	}

	ads, err := p.ads.Ads(ctx, filter, offset, PageSize)
	if err != nil {
		return nil, err
	}

	// Re-check after the fetch: the filter may have changed while the
	// query was in flight.
	p.mu.Lock()
	stale := generation != p.generation
	p.mu.Unlock()

	if stale {
		p.logger.WithFields(logrus.Fields{
			"generation": generation,
			"offset":     offset,
		}).Debug("discarding stale feed page")
		return nil, ErrStalePage
	}

	return &Page{
		Ads:        ads,
		Filter:     filter,
		NextOffset: offset + uint64(len(ads)),
		HasMore:    len(ads) == PageSize,
		Generation: generation,
	}, nil
}
