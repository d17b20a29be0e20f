package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courtlab/go-publish-backend/internal/repo"
)

func newDraftSvc(t *testing.T) *DraftService {
	t.Helper()
	return NewDraftService(repo.NewStore(t.TempDir()), []string{"cmo", "brand"})
}

func TestDraft_Create_SequentialPerAccount(t *testing.T) {
	svc := newDraftSvc(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := svc.Create(ctx, "cmo", "tweet", nil)
		if err != nil {
			t.Fatalf("create cmo #%d: %v", i, err)
		}
		want := "cmo-" + itoa(i)
		if d.ID != want {
			t.Fatalf("cmo sequence: got %s, want %s", d.ID, want)
		}
	}

	// A second account's sequence is independent.
	d, err := svc.Create(ctx, "brand", "tweet", nil)
	if err != nil {
		t.Fatalf("create brand: %v", err)
	}
	if d.ID != "brand-1" {
		t.Fatalf("brand sequence: got %s, want brand-1", d.ID)
	}
}

func itoa(i int) string { return string(rune('0' + i)) }

func TestDraft_Create_GapsNotReused(t *testing.T) {
	svc := newDraftSvc(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, "cmo", "tweet", nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := svc.Delete(ctx, "cmo-2"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	d, err := svc.Create(ctx, "cmo", "tweet", nil)
	if err != nil {
		t.Fatalf("create after delete: %v", err)
	}
	if d.ID != "cmo-4" {
		t.Fatalf("expected cmo-4 (gap at 2 not reused), got %s", d.ID)
	}
}

func TestDraft_UnknownAccount(t *testing.T) {
	svc := newDraftSvc(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "intern", "tweet", nil); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
	if _, err := svc.List(ctx, "intern"); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("list: expected ErrUnknownAccount, got %v", err)
	}
	if !IsValidation(ErrUnknownAccount) {
		t.Fatalf("ErrUnknownAccount must be in the validation family")
	}
}

func TestDraft_Update(t *testing.T) {
	svc := newDraftSvc(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, "cmo", "first pass", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	text := "second pass"
	when := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	up, err := svc.Update(ctx, d.ID, &text, &when)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if up.Text != "second pass" || up.ScheduledFor == nil || !up.ScheduledFor.Equal(when) {
		t.Fatalf("update result: %+v", up)
	}
	if up.ID != d.ID || up.Account != "cmo" {
		t.Fatalf("update must not change id/account: %+v", up)
	}

	blank := "   "
	if _, err := svc.Update(ctx, d.ID, &blank, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank text: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Update(ctx, "cmo-99", &text, nil); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("unknown id: expected ErrDraftNotFound, got %v", err)
	}
}

func TestDraft_List_Scoped(t *testing.T) {
	svc := newDraftSvc(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, "cmo", "a", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "brand", "b", nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := svc.List(ctx, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("list all: %v err=%v", all, err)
	}
	one, err := svc.List(ctx, "brand")
	if err != nil || len(one["brand"]) != 1 || len(one["cmo"]) != 0 {
		t.Fatalf("scoped list: %v err=%v", one, err)
	}
}

func TestDraft_Delete_NotFound(t *testing.T) {
	svc := newDraftSvc(t)
	if err := svc.Delete(context.Background(), "cmo-1"); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
}
