package repo

import (
	"github.com/courtlab/go-publish-backend/internal/domain"
)

// FeedCollection is the document name of the recurring tip feed.
const FeedCollection = "kennys-tips"

// LoadFeed returns the tip feed in stored order, empty when the document
// does not exist yet. Order is significant: tips are consumed strictly
// front-to-back and must never be reordered.
func LoadFeed(s *Store) ([]domain.Tip, error) {
	var feed []domain.Tip
	if err := s.Load(FeedCollection, &feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// SaveFeed rewrites the whole tip feed document.
func SaveFeed(s *Store, feed []domain.Tip) error {
	return s.Save(FeedCollection, feed)
}
