// Draft HTTP handlers.
//
// This file exposes REST endpoints for per-account tweet drafts:
//   - GET    /drafts       (list, optionally scoped to one account)
//   - POST   /drafts       (create; id is the account's next sequence slot)
//   - PUT    /drafts       (update text and/or schedule; id in the body)
//   - DELETE /drafts?id=   (remove; the freed number is never reused)
//
// Like the queue endpoints, the mutating routes carry the draft id in the
// body (PUT) or query (DELETE) rather than the path.
//
// The account set is closed by configuration; requests naming an unknown
// account are rejected as bad input rather than creating a new bucket.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/courtlab/go-publish-backend/internal/domain"
	"github.com/courtlab/go-publish-backend/internal/repo"
)

//
// DTOs
//

// CreateDraftRequest is the JSON payload for creating a draft.
type CreateDraftRequest struct {
	// Account selects the draft bucket; must be one of the configured keys.
	Account string `json:"account" binding:"required" example:"cmo"`
	// Text is the draft body.
	Text string `json:"text" binding:"required" example:"Shipping something new this week."`
	// ScheduledFor optionally notes when the draft is meant to go out.
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
}

// UpdateDraftRequest is the JSON payload for updating a draft. Absent fields
// are left untouched.
type UpdateDraftRequest struct {
	// ID names the draft to update, e.g. "cmo-3".
	ID           string     `json:"id" binding:"required" example:"cmo-3"`
	Text         *string    `json:"text,omitempty"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
}

// ListDraftsResponse wraps the draft book keyed by account.
type ListDraftsResponse struct {
	Drafts repo.DraftBook `json:"drafts"`
	Count  int            `json:"count"`
}

// DraftResponse wraps a single draft.
type DraftResponse struct {
	Draft *domain.Draft `json:"draft"`
}

//
// Handlers
//

// ListDrafts godoc
// @ID          listDrafts
// @Summary     List drafts
// @Description Returns drafts grouped by account. With ?account= the book is scoped to that single account; unknown accounts are rejected.
// @Tags        Drafts
// @Produce     json
//
// @Param       account  query  string  false "Account key"  example(cmo)
//
// @Success     200  {object} handlers.ListDraftsResponse
// @Failure     400  {object} handlers.ErrorResponse "Unknown account"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /drafts [get]
func (h *Handlers) ListDrafts(c *gin.Context) {
	book, err := h.draftSvc.List(c.Request.Context(), strings.TrimSpace(c.Query("account")))
	if err != nil {
		mapError(c, err)
		return
	}
	count := 0
	for _, drafts := range book {
		count += len(drafts)
	}
	ok(c, http.StatusOK, ListDraftsResponse{Drafts: book, Count: count})
}

// CreateDraft godoc
// @ID          createDraft
// @Summary     Create a draft
// @Description Appends a draft to the account's bucket with the next sequential id (e.g. cmo-4 after cmo-3, even when cmo-2 was deleted).
// @Tags        Drafts
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateDraftRequest  true  "New draft payload"
//
// @Success     201  {object} handlers.DraftResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /drafts [post]
func (h *Handlers) CreateDraft(c *gin.Context) {
	var req CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	draft, err := h.draftSvc.Create(c.Request.Context(), strings.TrimSpace(req.Account), req.Text, req.ScheduledFor)
	if err != nil {
		mapError(c, err)
		return
	}
	ok(c, http.StatusCreated, DraftResponse{Draft: draft})
}

// UpdateDraft godoc
// @ID          updateDraft
// @Summary     Update a draft
// @Description Replaces the text and/or schedule of an existing draft. The id and account never change.
// @Tags        Drafts
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.UpdateDraftRequest  true  "Draft id plus fields to update"
//
// @Success     200  {object} handlers.DraftResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Draft not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /drafts [put]
func (h *Handlers) UpdateDraft(c *gin.Context) {
	var req UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Text == nil && req.ScheduledFor == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "nothing to update")
		return
	}

	draft, err := h.draftSvc.Update(c.Request.Context(), req.ID, req.Text, req.ScheduledFor)
	if err != nil {
		mapError(c, err)
		return
	}
	ok(c, http.StatusOK, DraftResponse{Draft: draft})
}

// DeleteDraft godoc
// @ID          deleteDraft
// @Summary     Delete a draft
// @Description Removes the draft. Its numeric suffix stays burned: the account's next draft takes the number after the highest still present.
// @Tags        Drafts
// @Produce     json
//
// @Param       id  query  string  true  "Draft ID"  example(cmo-3)
//
// @Success     200  {object} handlers.SuccessResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing id"
// @Failure     404  {object} handlers.ErrorResponse "Draft not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /drafts [delete]
func (h *Handlers) DeleteDraft(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id query parameter required")
		return
	}
	if err := h.draftSvc.Delete(c.Request.Context(), id); err != nil {
		mapError(c, err)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true})
}
