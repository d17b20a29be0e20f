// Package services – TipService
//
// This file implements the TipService, which manages the recurring tip feed.
// The feed is an ordered document consumed strictly front-to-back: the next
// tip to publish is always the first one with posted=false, never the newest
// and never a random pick. Marking a tip posted is the only mutation the
// dispatcher performs, which makes re-running the daily job safe: once the
// feed is exhausted there is simply nothing left to do.
package services

import (
	"context"
	"time"

	"github.com/courtlab/go-publish-backend/internal/domain"
	"github.com/courtlab/go-publish-backend/internal/repo"
)

// TipService provides read/append access to the recurring tip feed and the
// posted-flag bookkeeping used by the dispatcher.
type TipService struct {
	// Store is the document store holding the feed collection.
	Store *repo.Store
	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// NewTipService constructs a TipService bound to the given store.
func NewTipService(store *repo.Store) *TipService {
	return &TipService{Store: store, Now: time.Now}
}

// List returns the whole feed in stored order.
func (s *TipService) List(ctx context.Context) ([]domain.Tip, error) {
	var feed []domain.Tip
	err := s.Store.WithLock(repo.FeedCollection, func() error {
		var err error
		feed, err = repo.LoadFeed(s.Store)
		return err
	})
	if err != nil {
		return nil, err
	}
	return feed, nil
}

// Add appends tips to the end of the feed, numbering them after the current
// maximum. Content is required; titles are optional.
func (s *TipService) Add(ctx context.Context, tips []domain.Tip) ([]domain.Tip, error) {
	for i := range tips {
		tips[i].Content = normalizeText(tips[i].Content)
		if tips[i].Content == "" {
			return nil, ErrValidation
		}
	}
	var added []domain.Tip
	err := s.Store.WithLock(repo.FeedCollection, func() error {
		feed, err := repo.LoadFeed(s.Store)
		if err != nil {
			return err
		}
		next := 0
		for _, t := range feed {
			if t.Number > next {
				next = t.Number
			}
		}
		for _, t := range tips {
			next++
			t.Number = next
			t.Posted = false
			t.PostedAt = nil
			feed = append(feed, t)
		}
		added = feed[len(feed)-len(tips):]
		return repo.SaveFeed(s.Store, feed)
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// NextUnposted returns the first tip in stored order that has not been
// posted, or nil when the feed is exhausted.
func (s *TipService) NextUnposted(ctx context.Context) (*domain.Tip, error) {
	var next *domain.Tip
	err := s.Store.WithLock(repo.FeedCollection, func() error {
		feed, err := repo.LoadFeed(s.Store)
		if err != nil {
			return err
		}
		for i := range feed {
			if !feed[i].Posted {
				t := feed[i]
				next = &t
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// MarkPosted flips a tip's posted flag and stamps postedAt. It is a no-op
// returning ErrValidation when the number is unknown, so a feed edited out
// from under an in-flight dispatch fails loudly instead of silently.
func (s *TipService) MarkPosted(ctx context.Context, number int) error {
	return s.Store.WithLock(repo.FeedCollection, func() error {
		feed, err := repo.LoadFeed(s.Store)
		if err != nil {
			return err
		}
		for i := range feed {
			if feed[i].Number == number {
				now := s.Now().UTC()
				feed[i].Posted = true
				feed[i].PostedAt = &now
				return repo.SaveFeed(s.Store, feed)
			}
		}
		return ErrValidation
	})
}

// Remaining reports how many tips are still unposted out of the total.
func (s *TipService) Remaining(ctx context.Context) (unposted, total int, err error) {
	err = s.Store.WithLock(repo.FeedCollection, func() error {
		feed, err := repo.LoadFeed(s.Store)
		if err != nil {
			return err
		}
		total = len(feed)
		for _, t := range feed {
			if !t.Posted {
				unposted++
			}
		}
		return nil
	})
	return unposted, total, err
}
