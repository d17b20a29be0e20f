package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/courtlab/go-publish-backend/internal/domain"
	"github.com/courtlab/go-publish-backend/internal/repo"
)

func newQueueSvc(t *testing.T) *QueueService {
	t.Helper()
	svc := NewQueueService(repo.NewStore(t.TempDir()), "reviewer")
	return svc
}

func mustCreate(t *testing.T, svc *QueueService, platform domain.Platform, caption string) *domain.Post {
	t.Helper()
	post, err := svc.Create(context.Background(), PostDraft{
		Platform:      platform,
		Caption:       caption,
		ScheduledTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return post
}

func TestQueue_Create_Defaults(t *testing.T) {
	svc := newQueueSvc(t)
	post := mustCreate(t, svc, domain.PlatformTwitter, "hello")

	if !strings.HasPrefix(post.ID, "post-") {
		t.Fatalf("id does not match post-*: %s", post.ID)
	}
	if post.Status != domain.StatusPending {
		t.Fatalf("new post status = %s, want pending", post.Status)
	}
	if post.Kind != domain.KindFeed {
		t.Fatalf("kind default: %s", post.Kind)
	}
	if post.CreatedAt.IsZero() {
		t.Fatalf("createdAt not set")
	}
}

func TestQueue_Create_Validation(t *testing.T) {
	svc := newQueueSvc(t)
	cases := []PostDraft{
		{Caption: "x", ScheduledTime: time.Now()},                                               // missing platform
		{Platform: "myspace", Caption: "x", ScheduledTime: time.Now()},                          // unknown platform
		{Platform: domain.PlatformTwitter, ScheduledTime: time.Now()},                           // missing caption
		{Platform: domain.PlatformTwitter, Caption: "   ", ScheduledTime: time.Now()},           // blank caption
		{Platform: domain.PlatformTwitter, Caption: "x"},                                        // missing schedule
		{Platform: domain.PlatformTwitter, Caption: "x", Kind: "live", ScheduledTime: time.Now()}, // unknown kind
	}
	for i, d := range cases {
		if _, err := svc.Create(context.Background(), d); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestQueue_Create_UniqueIDs(t *testing.T) {
	svc := newQueueSvc(t)
	seen := map[string]struct{}{}
	for i := 0; i < 30; i++ {
		post := mustCreate(t, svc, domain.PlatformTwitter, "caption")
		if _, dup := seen[post.ID]; dup {
			t.Fatalf("duplicate id: %s", post.ID)
		}
		seen[post.ID] = struct{}{}
	}
}

func TestQueue_List_Filters(t *testing.T) {
	svc := newQueueSvc(t)
	tw := mustCreate(t, svc, domain.PlatformTwitter, "tw")
	mustCreate(t, svc, domain.PlatformInstagram, "ig")
	if _, err := svc.ApplyAction(context.Background(), tw.ID, domain.ActionApprove, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}

	all, err := svc.List(context.Background(), PostFilter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("unfiltered list: %d items, err=%v", len(all), err)
	}

	twOnly, err := svc.List(context.Background(), PostFilter{Platform: "twitter"})
	if err != nil || len(twOnly) != 1 || twOnly[0].Platform != domain.PlatformTwitter {
		t.Fatalf("platform filter: %+v err=%v", twOnly, err)
	}

	approved, err := svc.List(context.Background(), PostFilter{Platform: "all", Status: "approved"})
	if err != nil || len(approved) != 1 || approved[0].ID != tw.ID {
		t.Fatalf("status filter: %+v err=%v", approved, err)
	}

	both, err := svc.List(context.Background(), PostFilter{Platform: "instagram", Status: "approved"})
	if err != nil || len(both) != 0 {
		t.Fatalf("conjunctive filter should be empty, got %d", len(both))
	}
}

func TestQueue_Lifecycle_HappyPath(t *testing.T) {
	svc := newQueueSvc(t)
	ctx := context.Background()
	post := mustCreate(t, svc, domain.PlatformTwitter, "hello")

	approved, err := svc.ApplyAction(ctx, post.ID, domain.ActionApprove, nil)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.StatusApproved || approved.ApprovedAt == nil || approved.ApprovedBy != "reviewer" {
		t.Fatalf("approve effects: %+v", approved)
	}

	scheduled, err := svc.ApplyAction(ctx, post.ID, domain.ActionSchedule, nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if scheduled.Status != domain.StatusScheduled {
		t.Fatalf("schedule status: %s", scheduled.Status)
	}

	// Failed dispatch: stays scheduled, lastError recorded, retryable.
	failed, err := svc.MarkFailed(ctx, post.ID, "rate limited by platform")
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if failed.Status != domain.StatusScheduled || failed.LastError == "" || failed.PostedAt != nil {
		t.Fatalf("failure effects: %+v", failed)
	}

	// Successful dispatch: posted, stamped, error cleared.
	posted, err := svc.MarkPosted(ctx, post.ID, "12345", "https://twitter.com/i/web/status/12345")
	if err != nil {
		t.Fatalf("mark posted: %v", err)
	}
	if posted.Status != domain.StatusPosted || posted.PostedAt == nil {
		t.Fatalf("success effects: %+v", posted)
	}
	if posted.LastError != "" {
		t.Fatalf("lastError not cleared on success")
	}
	if posted.PlatformPostID != "12345" || posted.PlatformURL == "" {
		t.Fatalf("platform metadata missing: %+v", posted)
	}
}

func TestQueue_ApplyAction_IllegalTransitions(t *testing.T) {
	svc := newQueueSvc(t)
	ctx := context.Background()
	post := mustCreate(t, svc, domain.PlatformTwitter, "x")

	if _, err := svc.ApplyAction(ctx, post.ID, domain.ActionSchedule, nil); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("schedule on pending: expected ErrInvalidTransition, got %v", err)
	}

	if _, err := svc.ApplyAction(ctx, post.ID, domain.ActionReject, nil); err != nil {
		t.Fatalf("reject: %v", err)
	}
	for _, a := range []domain.Action{domain.ActionApprove, domain.ActionReject, domain.ActionSchedule} {
		if _, err := svc.ApplyAction(ctx, post.ID, a, nil); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("%s on rejected: expected ErrInvalidTransition, got %v", a, err)
		}
	}

	// Not-found is reported distinctly from invalid transitions.
	_, err := svc.ApplyAction(ctx, "post-0-missing", domain.ActionApprove, nil)
	if !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("not-found must not match ErrInvalidTransition")
	}
}

func TestQueue_Edit_MergesWithoutStatusChange(t *testing.T) {
	svc := newQueueSvc(t)
	ctx := context.Background()
	post := mustCreate(t, svc, domain.PlatformTwitter, "before")
	if _, err := svc.ApplyAction(ctx, post.ID, domain.ActionApprove, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}

	caption := "after"
	notes := "tightened copy"
	when := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	edited, err := svc.ApplyAction(ctx, post.ID, domain.ActionEdit, &ActionPayload{
		Caption:       &caption,
		Notes:         &notes,
		ScheduledTime: &when,
		Hashtags:      []string{"#go", "#go", " "},
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Status != domain.StatusApproved {
		t.Fatalf("edit changed status to %s", edited.Status)
	}
	if edited.Caption != "after" || edited.Notes != "tightened copy" || !edited.ScheduledTime.Equal(when) {
		t.Fatalf("edit merge: %+v", edited)
	}
	if len(edited.Hashtags) != 1 || edited.Hashtags[0] != "#go" {
		t.Fatalf("hashtag normalization: %v", edited.Hashtags)
	}
	if edited.ApprovedAt == nil {
		t.Fatalf("edit must not clear audit timestamps")
	}

	if _, err := svc.ApplyAction(ctx, post.ID, domain.ActionEdit, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("edit without payload: expected ErrValidation, got %v", err)
	}
}

func TestQueue_Delete(t *testing.T) {
	svc := newQueueSvc(t)
	ctx := context.Background()
	post := mustCreate(t, svc, domain.PlatformFacebook, "bye")

	if err := svc.Delete(ctx, post.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("second delete: expected ErrPostNotFound, got %v", err)
	}
	if _, err := svc.Get(ctx, post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("get after delete: expected ErrPostNotFound, got %v", err)
	}
}

func TestQueue_DueScheduled(t *testing.T) {
	svc := newQueueSvc(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	past := mustCreate(t, svc, domain.PlatformTwitter, "due")
	future, err := svc.Create(ctx, PostDraft{
		Platform:      domain.PlatformTwitter,
		Caption:       "later",
		ScheduledTime: now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create future: %v", err)
	}
	for _, p := range []*domain.Post{past, future} {
		if _, err := svc.ApplyAction(ctx, p.ID, domain.ActionApprove, nil); err != nil {
			t.Fatalf("approve: %v", err)
		}
		if _, err := svc.ApplyAction(ctx, p.ID, domain.ActionSchedule, nil); err != nil {
			t.Fatalf("schedule: %v", err)
		}
	}

	due, err := svc.DueScheduled(ctx, now)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 1 || due[0].ID != past.ID {
		t.Fatalf("expected only the past-due post, got %+v", due)
	}
}

func TestQueue_Stats(t *testing.T) {
	svc := newQueueSvc(t)
	ctx := context.Background()
	mustCreate(t, svc, domain.PlatformTwitter, "a")
	p := mustCreate(t, svc, domain.PlatformTwitter, "b")
	if _, err := svc.ApplyAction(ctx, p.ID, domain.ActionApprove, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["total"] != 2 || stats["pending"] != 1 || stats["approved"] != 1 {
		t.Fatalf("stats: %v", stats)
	}
}
