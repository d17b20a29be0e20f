// Package services – DraftService
//
// This file implements the DraftService, which manages per-account tweet
// drafts. Drafts live in one document keyed by account, and each account's
// ids form their own monotonic sequence (cmo-1, cmo-2, ... alongside
// brand-1): the next id is always one past the highest suffix currently
// present, so deletions leave gaps that are never reused.
package services

import (
	"context"
	"time"

	"github.com/courtlab/go-publish-backend/internal/domain"
	"github.com/courtlab/go-publish-backend/internal/ids"
	"github.com/courtlab/go-publish-backend/internal/repo"
)

// DraftService provides CRUD over the per-account draft collection. The
// account set is closed: operations against unknown accounts fail with
// ErrUnknownAccount.
type DraftService struct {
	// Store is the document store holding the draft collection.
	Store *repo.Store
	// Accounts is the closed set of known account keys.
	Accounts []string
	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// NewDraftService constructs a DraftService for the given account set.
func NewDraftService(store *repo.Store, accounts []string) *DraftService {
	return &DraftService{Store: store, Accounts: accounts, Now: time.Now}
}

// knownAccount reports whether account is in the configured set.
func (s *DraftService) knownAccount(account string) bool {
	for _, a := range s.Accounts {
		if a == account {
			return true
		}
	}
	return false
}

// List returns drafts for one account, or all accounts when account is empty.
func (s *DraftService) List(ctx context.Context, account string) (repo.DraftBook, error) {
	if account != "" && !s.knownAccount(account) {
		return nil, ErrUnknownAccount
	}
	var out repo.DraftBook
	err := s.Store.WithLock(repo.DraftCollection, func() error {
		book, err := repo.LoadDrafts(s.Store)
		if err != nil {
			return err
		}
		if account == "" {
			out = book
			return nil
		}
		out = repo.DraftBook{account: book[account]}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create appends a draft for the account with the next sequential id.
func (s *DraftService) Create(ctx context.Context, account, text string, scheduledFor *time.Time) (*domain.Draft, error) {
	if !s.knownAccount(account) {
		return nil, ErrUnknownAccount
	}
	text = normalizeText(text)
	if text == "" {
		return nil, ErrValidation
	}

	var draft domain.Draft
	err := s.Store.WithLock(repo.DraftCollection, func() error {
		book, err := repo.LoadDrafts(s.Store)
		if err != nil {
			return err
		}
		existing := make([]string, 0, len(book[account]))
		for _, d := range book[account] {
			existing = append(existing, d.ID)
		}
		draft = domain.Draft{
			ID:           ids.NextSequential(account, existing),
			Account:      account,
			Text:         text,
			ScheduledFor: scheduledFor,
			CreatedAt:    s.Now().UTC(),
		}
		book[account] = append(book[account], draft)
		return repo.SaveDrafts(s.Store, book)
	})
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// Update replaces the text and/or schedule of an existing draft. Nil fields
// are left untouched; the id and account never change.
func (s *DraftService) Update(ctx context.Context, id string, text *string, scheduledFor *time.Time) (*domain.Draft, error) {
	var updated domain.Draft
	err := s.Store.WithLock(repo.DraftCollection, func() error {
		book, err := repo.LoadDrafts(s.Store)
		if err != nil {
			return err
		}
		account, i := repo.FindDraft(book, id)
		if i < 0 {
			return ErrDraftNotFound
		}
		d := &book[account][i]
		if text != nil {
			t := normalizeText(*text)
			if t == "" {
				return ErrValidation
			}
			d.Text = t
		}
		if scheduledFor != nil {
			d.ScheduledFor = scheduledFor
		}
		updated = *d
		return repo.SaveDrafts(s.Store, book)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a draft by id. The freed numeric suffix is never reused.
func (s *DraftService) Delete(ctx context.Context, id string) error {
	return s.Store.WithLock(repo.DraftCollection, func() error {
		book, err := repo.LoadDrafts(s.Store)
		if err != nil {
			return err
		}
		account, i := repo.FindDraft(book, id)
		if i < 0 {
			return ErrDraftNotFound
		}
		book[account] = append(book[account][:i], book[account][i+1:]...)
		return repo.SaveDrafts(s.Store, book)
	})
}
