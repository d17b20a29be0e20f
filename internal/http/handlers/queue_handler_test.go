package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/courtlab/go-publish-backend/internal/dispatch"
	"github.com/courtlab/go-publish-backend/internal/domain"
	"github.com/courtlab/go-publish-backend/internal/repo"
	"github.com/courtlab/go-publish-backend/internal/services"
)

// ---------- wiring ----------

// stubDispatcher answers dispatch triggers with canned results.
type stubDispatcher struct {
	runQueue func(context.Context, string, bool) (*dispatch.RunSummary, error)
	runFeed  func(context.Context) (*dispatch.TipOutcome, error)
}

func (s stubDispatcher) RunQueue(ctx context.Context, postID string, dryRun bool) (*dispatch.RunSummary, error) {
	if s.runQueue != nil {
		return s.runQueue(ctx, postID, dryRun)
	}
	return &dispatch.RunSummary{}, nil
}

func (s stubDispatcher) RunFeed(ctx context.Context) (*dispatch.TipOutcome, error) {
	if s.runFeed != nil {
		return s.runFeed(ctx)
	}
	return &dispatch.TipOutcome{}, nil
}

type env struct {
	router *gin.Engine
	queue  *services.QueueService
	drafts *services.DraftService
	tips   *services.TipService
}

// newEnv wires real services over a temp-dir store behind a bare router.
func newEnv(t *testing.T, disp QueueDispatcher) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repo.NewStore(t.TempDir())
	e := &env{
		queue:  services.NewQueueService(store, "reviewer"),
		drafts: services.NewDraftService(store, []string{"cmo", "brand"}),
		tips:   services.NewTipService(store),
	}
	if disp == nil {
		disp = stubDispatcher{}
	}
	h := New(e.queue, e.drafts, e.tips, disp)

	r := gin.New()
	r.GET("/queue", h.ListQueue)
	r.POST("/queue", h.CreatePost)
	r.GET("/queue/:id", h.GetPost)
	r.PATCH("/queue", h.ActOnPost)
	r.DELETE("/queue", h.DeletePost)
	r.GET("/drafts", h.ListDrafts)
	r.POST("/drafts", h.CreateDraft)
	r.PUT("/drafts", h.UpdateDraft)
	r.DELETE("/drafts", h.DeleteDraft)
	r.GET("/tips", h.ListTips)
	r.POST("/tips", h.AddTips)
	r.POST("/dispatch", h.DispatchQueue)
	r.POST("/dispatch/tip", h.DispatchTip)
	r.GET("/dispatch/status", h.DispatchStatus)
	e.router = r
	return e
}

func (e *env) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func createPost(t *testing.T, e *env, platform string) domain.Post {
	t.Helper()
	w := e.do(t, http.MethodPost, "/queue", CreatePostRequest{
		Platform:      platform,
		Caption:       "hello court",
		ScheduledTime: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", w.Code, w.Body.String())
	}
	resp := decode[PostResponse](t, w)
	if resp.Post == nil {
		t.Fatalf("create: missing post envelope in %s", w.Body.String())
	}
	return *resp.Post
}

// ---------- tests ----------

func TestCreatePost_StartsPending(t *testing.T) {
	e := newEnv(t, nil)
	post := createPost(t, e, "instagram")
	if post.Status != domain.StatusPending || post.Platform != domain.PlatformInstagram {
		t.Fatalf("created post: %+v", post)
	}
	if post.ID == "" {
		t.Fatalf("missing id")
	}
}

func TestCreatePost_BadInput(t *testing.T) {
	e := newEnv(t, nil)

	w := e.do(t, http.MethodPost, "/queue", map[string]any{"platform": "myspace", "caption": "x", "scheduledTime": "2026-09-01T09:00:00Z"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown platform: status %d", w.Code)
	}
	resp := decode[ErrorResponse](t, w)
	if resp.Code != ErrCodeBadRequest {
		t.Fatalf("error code: %s", resp.Code)
	}

	if w := e.do(t, http.MethodPost, "/queue", map[string]any{"platform": "twitter"}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing fields: status %d", w.Code)
	}
}

func TestListQueue_Filters(t *testing.T) {
	e := newEnv(t, nil)
	createPost(t, e, "twitter")
	createPost(t, e, "instagram")

	all := decode[ListQueueResponse](t, e.do(t, http.MethodGet, "/queue", nil))
	if all.Count != 2 {
		t.Fatalf("unfiltered: %+v", all)
	}

	tw := decode[ListQueueResponse](t, e.do(t, http.MethodGet, "/queue?platform=twitter", nil))
	if tw.Count != 1 || tw.Posts[0].Platform != domain.PlatformTwitter {
		t.Fatalf("platform filter: %+v", tw)
	}

	limited := decode[ListQueueResponse](t, e.do(t, http.MethodGet, "/queue?limit=1", nil))
	if limited.Count != 1 {
		t.Fatalf("limit: %+v", limited)
	}
}

func TestActOnPost_Lifecycle(t *testing.T) {
	e := newEnv(t, nil)
	post := createPost(t, e, "twitter")

	w := e.do(t, http.MethodPatch, "/queue", ActionRequest{ID: post.ID, Action: "approve"})
	if w.Code != http.StatusOK {
		t.Fatalf("approve: status %d body %s", w.Code, w.Body.String())
	}
	approved := decode[PostResponse](t, w).Post
	if approved.Status != domain.StatusApproved || approved.ApprovedBy != "reviewer" {
		t.Fatalf("approve result: %+v", approved)
	}

	w = e.do(t, http.MethodPatch, "/queue", ActionRequest{ID: post.ID, Action: "schedule"})
	if w.Code != http.StatusOK || decode[PostResponse](t, w).Post.Status != domain.StatusScheduled {
		t.Fatalf("schedule: status %d body %s", w.Code, w.Body.String())
	}
}

func TestActOnPost_ErrorTaxonomy(t *testing.T) {
	e := newEnv(t, nil)
	post := createPost(t, e, "twitter")

	// Illegal transition: schedule before approval.
	w := e.do(t, http.MethodPatch, "/queue", ActionRequest{ID: post.ID, Action: "schedule"})
	if w.Code != http.StatusConflict {
		t.Fatalf("illegal transition: status %d", w.Code)
	}
	if resp := decode[ErrorResponse](t, w); resp.Code != ErrCodeConflict {
		t.Fatalf("error code: %s", resp.Code)
	}

	// Unknown id: 404, not 409.
	w = e.do(t, http.MethodPatch, "/queue", ActionRequest{ID: "post-0-missing", Action: "approve"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status %d", w.Code)
	}

	// Unknown action and internal dispatch actions: 400.
	for _, action := range []string{"launch", "dispatch-success", "dispatch-failure"} {
		w = e.do(t, http.MethodPatch, "/queue", ActionRequest{ID: post.ID, Action: action})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("action %q: status %d", action, w.Code)
		}
	}
}

func TestActOnPost_EditPayload(t *testing.T) {
	e := newEnv(t, nil)
	post := createPost(t, e, "facebook")

	caption := "better copy"
	w := e.do(t, http.MethodPatch, "/queue", ActionRequest{ID: post.ID, Action: "edit", Caption: &caption})
	if w.Code != http.StatusOK {
		t.Fatalf("edit: status %d body %s", w.Code, w.Body.String())
	}
	edited := decode[PostResponse](t, w).Post
	if edited.Caption != "better copy" || edited.Status != domain.StatusPending {
		t.Fatalf("edit result: %+v", edited)
	}

	// Edit with no fields is a validation error.
	if w := e.do(t, http.MethodPatch, "/queue", ActionRequest{ID: post.ID, Action: "edit"}); w.Code != http.StatusBadRequest {
		t.Fatalf("empty edit: status %d", w.Code)
	}
}

func TestGetAndDeletePost(t *testing.T) {
	e := newEnv(t, nil)
	post := createPost(t, e, "twitter")

	if w := e.do(t, http.MethodGet, "/queue/"+post.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("get: status %d", w.Code)
	}

	w := e.do(t, http.MethodDelete, "/queue?id="+post.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status %d body %s", w.Code, w.Body.String())
	}
	if !decode[SuccessResponse](t, w).Success {
		t.Fatalf("delete: success flag not set in %s", w.Body.String())
	}

	if w := e.do(t, http.MethodGet, "/queue/"+post.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, "/queue?id="+post.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: status %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, "/queue", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("delete without id: status %d", w.Code)
	}
}
