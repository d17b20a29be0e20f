package repo

import (
	"github.com/courtlab/go-publish-backend/internal/domain"
)

// DraftCollection is the document name of the per-account tweet drafts.
const DraftCollection = "tweet-drafts"

// DraftBook maps an account key to that account's draft list. The whole map
// lives in one document so a single save keeps all accounts consistent.
type DraftBook map[string][]domain.Draft

// LoadDrafts returns the draft book, empty when the document does not exist.
func LoadDrafts(s *Store) (DraftBook, error) {
	book := DraftBook{}
	if err := s.Load(DraftCollection, &book); err != nil {
		return nil, err
	}
	return book, nil
}

// SaveDrafts rewrites the whole draft document.
func SaveDrafts(s *Store, book DraftBook) error {
	return s.Save(DraftCollection, book)
}

// FindDraft locates a draft by id across all accounts, returning the account
// key and index, or ("", -1) when absent.
func FindDraft(book DraftBook, id string) (string, int) {
	for account, drafts := range book {
		for i := range drafts {
			if drafts[i].ID == id {
				return account, i
			}
		}
	}
	return "", -1
}
