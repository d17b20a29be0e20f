package services

import (
	"context"
	"errors"
	"testing"

	"github.com/courtlab/go-publish-backend/internal/domain"
	"github.com/courtlab/go-publish-backend/internal/repo"
)

func newTipSvc(t *testing.T) *TipService {
	t.Helper()
	return NewTipService(repo.NewStore(t.TempDir()))
}

func seedTips(t *testing.T, svc *TipService, contents ...string) {
	t.Helper()
	tips := make([]domain.Tip, 0, len(contents))
	for _, c := range contents {
		tips = append(tips, domain.Tip{Content: c})
	}
	if _, err := svc.Add(context.Background(), tips); err != nil {
		t.Fatalf("seed tips: %v", err)
	}
}

func TestTip_Add_NumbersSequentially(t *testing.T) {
	svc := newTipSvc(t)
	seedTips(t, svc, "tip one", "tip two")
	seedTips(t, svc, "tip three")

	feed, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(feed) != 3 {
		t.Fatalf("expected 3 tips, got %d", len(feed))
	}
	for i, tip := range feed {
		if tip.Number != i+1 {
			t.Fatalf("tip %d numbered %d", i, tip.Number)
		}
		if tip.Posted {
			t.Fatalf("new tip %d already posted", tip.Number)
		}
	}
}

func TestTip_Add_RequiresContent(t *testing.T) {
	svc := newTipSvc(t)
	if _, err := svc.Add(context.Background(), []domain.Tip{{Content: "  "}}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTip_NextUnposted_StrictOrder(t *testing.T) {
	svc := newTipSvc(t)
	ctx := context.Background()
	seedTips(t, svc, "first", "second", "third")

	next, err := svc.NextUnposted(ctx)
	if err != nil || next == nil || next.Number != 1 {
		t.Fatalf("expected tip 1 first, got %+v err=%v", next, err)
	}

	if err := svc.MarkPosted(ctx, 1); err != nil {
		t.Fatalf("mark posted: %v", err)
	}

	next, err = svc.NextUnposted(ctx)
	if err != nil || next == nil || next.Number != 2 {
		t.Fatalf("expected tip 2 after tip 1 posted, got %+v err=%v", next, err)
	}
}

func TestTip_MarkPosted_StampsAndPersists(t *testing.T) {
	svc := newTipSvc(t)
	ctx := context.Background()
	seedTips(t, svc, "only")

	if err := svc.MarkPosted(ctx, 1); err != nil {
		t.Fatalf("mark posted: %v", err)
	}
	feed, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !feed[0].Posted || feed[0].PostedAt == nil {
		t.Fatalf("posted flag/stamp missing: %+v", feed[0])
	}

	if err := svc.MarkPosted(ctx, 42); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown number: expected ErrValidation, got %v", err)
	}
}

func TestTip_ExhaustedFeedIsNoOp(t *testing.T) {
	svc := newTipSvc(t)
	ctx := context.Background()
	seedTips(t, svc, "a", "b")
	for n := 1; n <= 2; n++ {
		if err := svc.MarkPosted(ctx, n); err != nil {
			t.Fatalf("mark posted %d: %v", n, err)
		}
	}

	before, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	next, err := svc.NextUnposted(ctx)
	if err != nil {
		t.Fatalf("next on exhausted feed: %v", err)
	}
	if next != nil {
		t.Fatalf("expected nil on exhausted feed, got %+v", next)
	}
	after, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(before) != len(after) {
		t.Fatalf("exhausted-feed check mutated the feed")
	}

	unposted, total, err := svc.Remaining(ctx)
	if err != nil || unposted != 0 || total != 2 {
		t.Fatalf("remaining: %d/%d err=%v", unposted, total, err)
	}
}
