// Queue HTTP handlers.
//
// This file exposes REST endpoints for the publishing queue:
//   - GET    /queue           (list, filterable by platform and status)
//   - POST   /queue           (create, always lands in "pending")
//   - GET    /queue/{id}      (fetch one item)
//   - PATCH  /queue           (lifecycle action: approve/reject/schedule/edit)
//   - DELETE /queue?id=       (remove, any status)
//
// The mutating endpoints carry the item id in the body (PATCH) or query
// (DELETE) rather than the path; existing callers of the queue API address
// items that way and the shape is kept.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. The error taxonomy maps onto
// status codes uniformly: validation failures are 400, unknown ids are 404,
// illegal lifecycle transitions are 409, storage faults are 500.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/courtlab/go-publish-backend/internal/dispatch"
	"github.com/courtlab/go-publish-backend/internal/domain"
	"github.com/courtlab/go-publish-backend/internal/repo"
	"github.com/courtlab/go-publish-backend/internal/services"
	"github.com/courtlab/go-publish-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// QueueService defines queue lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type QueueService interface {
	// List returns queue items matching the filter, in stored order.
	List(ctx context.Context, f services.PostFilter) ([]domain.Post, error)
	// Create validates and appends a new pending item.
	Create(ctx context.Context, d services.PostDraft) (*domain.Post, error)
	// Get returns one item by id.
	Get(ctx context.Context, id string) (*domain.Post, error)
	// ApplyAction runs one lifecycle action against an item.
	ApplyAction(ctx context.Context, id string, action domain.Action, payload *services.ActionPayload) (*domain.Post, error)
	// Delete removes an item regardless of status.
	Delete(ctx context.Context, id string) error
	// Stats returns per-status counts plus a total.
	Stats(ctx context.Context) (map[string]int, error)
}

// DraftService defines per-account draft operations consumed by HTTP handlers.
type DraftService interface {
	List(ctx context.Context, account string) (repo.DraftBook, error)
	Create(ctx context.Context, account, text string, scheduledFor *time.Time) (*domain.Draft, error)
	Update(ctx context.Context, id string, text *string, scheduledFor *time.Time) (*domain.Draft, error)
	Delete(ctx context.Context, id string) error
}

// TipService defines tip feed operations consumed by HTTP handlers.
type TipService interface {
	List(ctx context.Context) ([]domain.Tip, error)
	Add(ctx context.Context, tips []domain.Tip) ([]domain.Tip, error)
	Remaining(ctx context.Context) (unposted, total int, err error)
}

// QueueDispatcher triggers publish runs from the HTTP surface.
type QueueDispatcher interface {
	// RunQueue publishes due scheduled items, or one item by id.
	RunQueue(ctx context.Context, postID string, dryRun bool) (*dispatch.RunSummary, error)
	// RunFeed publishes the next unposted tip.
	RunFeed(ctx context.Context) (*dispatch.TipOutcome, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for the queue, drafts, tips, and dispatch.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	queueSvc QueueService
	draftSvc DraftService
	tipSvc   TipService
	disp     QueueDispatcher
}

// New constructs and returns a Handlers instance bound to the given services.
func New(queueSvc QueueService, draftSvc DraftService, tipSvc TipService, disp QueueDispatcher) *Handlers {
	return &Handlers{queueSvc: queueSvc, draftSvc: draftSvc, tipSvc: tipSvc, disp: disp}
}

// mapError translates service-level errors into the uniform HTTP taxonomy.
func mapError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrPostNotFound), errors.Is(err, services.ErrDraftNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// DTOs
//

// CreatePostRequest is the JSON payload for queueing a new post. Field names
// match the persisted document shape.
type CreatePostRequest struct {
	// Platform selects the target network: twitter, instagram, or facebook.
	Platform string `json:"platform" binding:"required" example:"instagram"`
	// Kind is the content form; defaults to "feed" when omitted.
	Kind string `json:"type" example:"reel"`
	// ScheduledTime is the earliest RFC 3339 instant the item may publish.
	ScheduledTime time.Time `json:"scheduledTime" binding:"required" example:"2026-09-01T09:00:00Z"`
	// Caption is the post body text.
	Caption   string   `json:"caption" binding:"required" example:"Serve's up."`
	MediaURLs []string `json:"mediaUrls,omitempty"`
	Hashtags  []string `json:"hashtags,omitempty"`
	Mentions  []string `json:"mentions,omitempty"`
	Link      string   `json:"link,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// ActionRequest is the JSON payload for PATCH /queue. ID and Action are
// required; the remaining fields are the optional edits accepted by "edit"
// and "approve".
type ActionRequest struct {
	ID            string     `json:"id" binding:"required" example:"post-1766191475024-x7k2m9q4b"`
	Action        string     `json:"action" binding:"required" example:"approve"`
	Caption       *string    `json:"caption,omitempty"`
	ScheduledTime *time.Time `json:"scheduledTime,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	MediaURLs     []string   `json:"mediaUrls,omitempty"`
	Hashtags      []string   `json:"hashtags,omitempty"`
}

// ListQueueResponse wraps the queue page and its item count.
type ListQueueResponse struct {
	Posts []domain.Post `json:"posts"`
	Count int           `json:"count"`
}

// PostResponse wraps a single queue item.
type PostResponse struct {
	Post *domain.Post `json:"post"`
}

// SuccessResponse acknowledges a delete.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// requestableActions are the lifecycle actions the HTTP surface accepts.
// Dispatch outcomes are applied internally by the dispatcher only.
var requestableActions = map[domain.Action]bool{
	domain.ActionApprove:  true,
	domain.ActionReject:   true,
	domain.ActionSchedule: true,
	domain.ActionEdit:     true,
}

// clampLimit parses and bounds the optional ?limit= query parameter.
func clampLimit(c *gin.Context) int {
	const (
		defaultLimit = 100
		maxLimit     = 500
	)
	limit := utils.AtoiDefault(c.Query("limit"), defaultLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

//
// Handlers
//

// ListQueue godoc
// @ID          listQueue
// @Summary     List queued posts
// @Description Returns queue items in stored order, optionally filtered by platform and status. "all" or an empty value disables a filter dimension.
// @Tags        Queue
// @Produce     json
//
// @Param       platform  query  string  false "Platform filter (twitter|instagram|facebook|all)"  example(instagram)
// @Param       status    query  string  false "Status filter (pending|approved|rejected|scheduled|posted|all)"  example(pending)
// @Param       limit     query  int     false "Maximum items returned"  minimum(1) maximum(500) default(100)
//
// @Success     200  {object} handlers.ListQueueResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue [get]
func (h *Handlers) ListQueue(c *gin.Context) {
	posts, err := h.queueSvc.List(c.Request.Context(), services.PostFilter{
		Platform: c.Query("platform"),
		Status:   c.Query("status"),
	})
	if err != nil {
		mapError(c, err)
		return
	}
	if limit := clampLimit(c); len(posts) > limit {
		posts = posts[:limit]
	}
	ok(c, http.StatusOK, ListQueueResponse{Posts: posts, Count: len(posts)})
}

// CreatePost godoc
// @ID          createPost
// @Summary     Queue a new post
// @Description Validates and appends a new item to the publishing queue. Every new item starts in "pending" and must pass approval before it can be scheduled.
// @Tags        Queue
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreatePostRequest  true  "New post payload"
//
// @Success     201  {object} handlers.PostResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	post, err := h.queueSvc.Create(c.Request.Context(), services.PostDraft{
		Platform:      domain.Platform(strings.ToLower(strings.TrimSpace(req.Platform))),
		Kind:          domain.PostKind(strings.ToLower(strings.TrimSpace(req.Kind))),
		ScheduledTime: req.ScheduledTime,
		Caption:       req.Caption,
		MediaURLs:     req.MediaURLs,
		Hashtags:      req.Hashtags,
		Mentions:      req.Mentions,
		Link:          req.Link,
		Notes:         req.Notes,
	})
	if err != nil {
		mapError(c, err)
		return
	}
	ok(c, http.StatusCreated, PostResponse{Post: post})
}

// GetPost godoc
// @ID          getPost
// @Summary     Fetch one queued post
// @Tags        Queue
// @Produce     json
//
// @Param       id  path  string  true  "Post ID"  example(post-1766191475024-x7k2m9q4b)
//
// @Success     200  {object} handlers.PostResponse
// @Failure     404  {object} handlers.ErrorResponse "Post not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	post, err := h.queueSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapError(c, err)
		return
	}
	ok(c, http.StatusOK, PostResponse{Post: post})
}

// ActOnPost godoc
// @ID          actOnPost
// @Summary     Apply a lifecycle action to a post
// @Description Runs one of approve, reject, schedule, or edit against the item. Approve and edit accept optional field updates in the same payload; an illegal (status, action) combination is rejected with 409 and the item is left untouched.
// @Tags        Queue
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ActionRequest  true  "Action payload"
//
// @Success     200  {object} handlers.PostResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Post not found"
// @Failure     409  {object} handlers.ErrorResponse "Illegal transition"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue [patch]
func (h *Handlers) ActOnPost(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	action := domain.Action(strings.ToLower(strings.TrimSpace(req.Action)))
	if !requestableActions[action] {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown action")
		return
	}

	var payload *services.ActionPayload
	if req.Caption != nil || req.ScheduledTime != nil || req.Notes != nil || req.MediaURLs != nil || req.Hashtags != nil {
		payload = &services.ActionPayload{
			Caption:       req.Caption,
			ScheduledTime: req.ScheduledTime,
			Notes:         req.Notes,
			MediaURLs:     req.MediaURLs,
			Hashtags:      req.Hashtags,
		}
	}

	post, err := h.queueSvc.ApplyAction(c.Request.Context(), req.ID, action, payload)
	if err != nil {
		mapError(c, err)
		return
	}
	ok(c, http.StatusOK, PostResponse{Post: post})
}

// DeletePost godoc
// @ID          deletePost
// @Summary     Remove a post from the queue
// @Description Deletes the item regardless of its status. Gone means gone; there is no archive.
// @Tags        Queue
// @Produce     json
//
// @Param       id  query  string  true  "Post ID"  example(post-1766191475024-x7k2m9q4b)
//
// @Success     200  {object} handlers.SuccessResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing id"
// @Failure     404  {object} handlers.ErrorResponse "Post not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue [delete]
func (h *Handlers) DeletePost(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id query parameter required")
		return
	}
	if err := h.queueSvc.Delete(c.Request.Context(), id); err != nil {
		mapError(c, err)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true})
}
