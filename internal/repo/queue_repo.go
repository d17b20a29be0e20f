package repo

import (
	"github.com/courtlab/go-publish-backend/internal/domain"
)

// QueueCollection is the document name of the publishing queue.
const QueueCollection = "post-queue"

// LoadQueue returns the full publishing queue, empty when the document does
// not exist yet.
func LoadQueue(s *Store) ([]domain.Post, error) {
	var queue []domain.Post
	if err := s.Load(QueueCollection, &queue); err != nil {
		return nil, err
	}
	return queue, nil
}

// SaveQueue rewrites the whole publishing queue document.
func SaveQueue(s *Store, queue []domain.Post) error {
	return s.Save(QueueCollection, queue)
}

// FindPost returns the index of the post with the given id, or -1.
func FindPost(queue []domain.Post, id string) int {
	for i := range queue {
		if queue[i].ID == id {
			return i
		}
	}
	return -1
}
