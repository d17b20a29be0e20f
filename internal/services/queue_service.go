// Package services – QueueService
//
// This file implements the QueueService, which owns the publishing queue
// collection. Every mutating operation is one load → mutate → save cycle run
// under the collection's lock, so the persisted document sees exactly one
// whole rewrite per successful call and concurrent requests cannot lose
// updates. Lifecycle moves go through the domain transition table; the
// service only applies the field effects each transition implies.
//
// Service-level errors (ErrPostNotFound, ErrValidation,
// domain.ErrInvalidTransition) are returned for predictable cases so handlers
// can map them to HTTP results consistently.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtlab/go-publish-backend/internal/domain"
	"github.com/courtlab/go-publish-backend/internal/ids"
	"github.com/courtlab/go-publish-backend/internal/repo"
)

// PostFilter narrows List results. Empty or "all" on a dimension means no
// filter on that dimension; both dimensions are conjunctive.
type PostFilter struct {
	Platform string
	Status   string
}

// PostDraft carries the caller-supplied fields for a new queue item.
type PostDraft struct {
	Platform      domain.Platform
	Kind          domain.PostKind
	ScheduledTime time.Time
	Caption       string
	MediaURLs     []string
	Hashtags      []string
	Mentions      []string
	Link          string
	Notes         string
}

// ActionPayload carries the optional field edits accepted by the "edit"
// action and, as an observed convenience, by "approve". Nil fields are left
// untouched; status and audit timestamps are never writable through here.
type ActionPayload struct {
	Caption       *string
	ScheduledTime *time.Time
	Notes         *string
	MediaURLs     []string
	Hashtags      []string
}

// QueueService provides create/list/act/delete over the publishing queue.
type QueueService struct {
	// Store is the document store holding the queue collection.
	Store *repo.Store
	// ApproverName is recorded as approvedBy on approval.
	ApproverName string
	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// NewQueueService constructs a QueueService bound to the given store.
func NewQueueService(store *repo.Store, approver string) *QueueService {
	return &QueueService{Store: store, ApproverName: approver, Now: time.Now}
}

// List returns queue items matching the filter, in stored order.
func (s *QueueService) List(ctx context.Context, f PostFilter) ([]domain.Post, error) {
	var out []domain.Post
	err := s.Store.WithLock(repo.QueueCollection, func() error {
		queue, err := repo.LoadQueue(s.Store)
		if err != nil {
			return err
		}
		out = filterPosts(queue, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// filterPosts applies the conjunctive platform/status filter. "all" and ""
// are pass-through on their dimension.
func filterPosts(queue []domain.Post, f PostFilter) []domain.Post {
	out := make([]domain.Post, 0, len(queue))
	for _, p := range queue {
		if f.Platform != "" && f.Platform != "all" && string(p.Platform) != f.Platform {
			continue
		}
		if f.Status != "" && f.Status != "all" && string(p.Status) != f.Status {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Create validates the draft, assigns an opaque id, and appends the new item
// with status "pending". Platform, caption, and scheduled time are required.
func (s *QueueService) Create(ctx context.Context, d PostDraft) (*domain.Post, error) {
	if !domain.ValidPlatform(d.Platform) {
		return nil, ErrValidation
	}
	caption := normalizeText(d.Caption)
	if caption == "" || d.ScheduledTime.IsZero() {
		return nil, ErrValidation
	}
	kind := d.Kind
	if kind == "" {
		kind = domain.KindFeed
	}
	if !domain.ValidKind(kind) {
		return nil, ErrValidation
	}

	now := s.Now().UTC()
	post := domain.Post{
		ID:            ids.NewPostID(now),
		Platform:      d.Platform,
		Kind:          kind,
		Status:        domain.StatusPending,
		ScheduledTime: d.ScheduledTime,
		Caption:       caption,
		MediaURLs:     d.MediaURLs,
		Hashtags:      normalizeTags(d.Hashtags),
		Mentions:      normalizeTags(d.Mentions),
		Link:          d.Link,
		Notes:         d.Notes,
		CreatedAt:     now,
	}

	err := s.Store.WithLock(repo.QueueCollection, func() error {
		queue, err := repo.LoadQueue(s.Store)
		if err != nil {
			return err
		}
		queue = append(queue, post)
		return repo.SaveQueue(s.Store, queue)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ApplyAction looks up the post by id and applies a lifecycle action. It
// returns ErrPostNotFound for an unknown id and an error matching
// domain.ErrInvalidTransition for an illegal (status, action) pair, so
// callers can report the two failures distinctly.
func (s *QueueService) ApplyAction(ctx context.Context, id string, action domain.Action, payload *ActionPayload) (*domain.Post, error) {
	var updated domain.Post
	err := s.Store.WithLock(repo.QueueCollection, func() error {
		queue, err := repo.LoadQueue(s.Store)
		if err != nil {
			return err
		}
		i := repo.FindPost(queue, id)
		if i < 0 {
			return ErrPostNotFound
		}

		next, err := domain.Transition(queue[i].Status, action)
		if err != nil {
			return err
		}

		now := s.Now().UTC()
		post := &queue[i]
		switch action {
		case domain.ActionApprove:
			post.Status = next
			post.ApprovedAt = &now
			post.ApprovedBy = s.ApproverName
			applyEdits(post, payload)
		case domain.ActionReject, domain.ActionSchedule:
			post.Status = next
		case domain.ActionEdit:
			if payload == nil {
				return ErrValidation
			}
			applyEdits(post, payload)
		default:
			// Dispatch outcomes are applied via MarkPosted/MarkFailed, not here.
			return &domain.InvalidTransitionError{From: post.Status, Action: action}
		}

		updated = *post
		return repo.SaveQueue(s.Store, queue)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// applyEdits merges the optional payload fields into post without touching
// status or audit timestamps.
func applyEdits(post *domain.Post, payload *ActionPayload) {
	if payload == nil {
		return
	}
	if payload.Caption != nil {
		if c := normalizeText(*payload.Caption); c != "" {
			post.Caption = c
		}
	}
	if payload.ScheduledTime != nil && !payload.ScheduledTime.IsZero() {
		post.ScheduledTime = *payload.ScheduledTime
	}
	if payload.Notes != nil {
		post.Notes = *payload.Notes
	}
	if payload.MediaURLs != nil {
		post.MediaURLs = payload.MediaURLs
	}
	if payload.Hashtags != nil {
		post.Hashtags = normalizeTags(payload.Hashtags)
	}
}

// Delete removes the post with the given id. Deletion is unconditional
// regardless of status; removing an already-published item only emits a
// warning (the dispatcher's log document retains publish history).
func (s *QueueService) Delete(ctx context.Context, id string) error {
	return s.Store.WithLock(repo.QueueCollection, func() error {
		queue, err := repo.LoadQueue(s.Store)
		if err != nil {
			return err
		}
		i := repo.FindPost(queue, id)
		if i < 0 {
			return ErrPostNotFound
		}
		if queue[i].Status == domain.StatusPosted {
			log.Warn().Str("post_id", id).Str("platform_url", queue[i].PlatformURL).
				Msg("deleting an already-published item")
		}
		queue = append(queue[:i], queue[i+1:]...)
		return repo.SaveQueue(s.Store, queue)
	})
}

// Get returns a single post by id.
func (s *QueueService) Get(ctx context.Context, id string) (*domain.Post, error) {
	var out *domain.Post
	err := s.Store.WithLock(repo.QueueCollection, func() error {
		queue, err := repo.LoadQueue(s.Store)
		if err != nil {
			return err
		}
		i := repo.FindPost(queue, id)
		if i < 0 {
			return ErrPostNotFound
		}
		p := queue[i]
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DueScheduled returns copies of all scheduled posts whose scheduled time is
// at or before now, in stored order. Used by the dispatcher.
func (s *QueueService) DueScheduled(ctx context.Context, now time.Time) ([]domain.Post, error) {
	var due []domain.Post
	err := s.Store.WithLock(repo.QueueCollection, func() error {
		queue, err := repo.LoadQueue(s.Store)
		if err != nil {
			return err
		}
		for _, p := range queue {
			if p.Status == domain.StatusScheduled && !p.ScheduledTime.After(now) {
				due = append(due, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return due, nil
}

// MarkPosted applies the dispatch-success transition: status "posted",
// postedAt stamped, platform post id/url recorded, lastError cleared.
func (s *QueueService) MarkPosted(ctx context.Context, id, platformPostID, platformURL string) (*domain.Post, error) {
	return s.applyDispatch(id, domain.ActionDispatchOK, func(post *domain.Post, now time.Time) {
		post.PostedAt = &now
		post.PlatformPostID = platformPostID
		post.PlatformURL = platformURL
		post.LastError = ""
	})
}

// MarkFailed applies the dispatch-failure transition: status stays
// "scheduled" (retryable) and lastError records the platform's message.
func (s *QueueService) MarkFailed(ctx context.Context, id, message string) (*domain.Post, error) {
	return s.applyDispatch(id, domain.ActionDispatchFail, func(post *domain.Post, _ time.Time) {
		post.LastError = message
	})
}

// applyDispatch runs a dispatch outcome through the transition table and
// persists the result.
func (s *QueueService) applyDispatch(id string, action domain.Action, effect func(*domain.Post, time.Time)) (*domain.Post, error) {
	var updated domain.Post
	err := s.Store.WithLock(repo.QueueCollection, func() error {
		queue, err := repo.LoadQueue(s.Store)
		if err != nil {
			return err
		}
		i := repo.FindPost(queue, id)
		if i < 0 {
			return ErrPostNotFound
		}
		next, err := domain.Transition(queue[i].Status, action)
		if err != nil {
			return err
		}
		queue[i].Status = next
		effect(&queue[i], s.Now().UTC())
		updated = queue[i]
		return repo.SaveQueue(s.Store, queue)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Stats summarizes the queue by status. Used by the dispatch status endpoint.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	var stats map[string]int
	err := s.Store.WithLock(repo.QueueCollection, func() error {
		queue, err := repo.LoadQueue(s.Store)
		if err != nil {
			return err
		}
		stats = map[string]int{"total": len(queue)}
		for _, p := range queue {
			stats[string(p.Status)]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
