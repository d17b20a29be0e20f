// Dispatch HTTP handlers.
//
// This file exposes the publish trigger endpoints:
//   - POST /dispatch         (publish due scheduled items, or one item by id)
//   - POST /dispatch/tip     (publish the next unposted feed tip)
//   - GET  /dispatch/status  (queue counters and feed progress)
//
// Dispatch runs are synchronous: the response carries the per-item outcomes
// of the run it triggered. A request-level dryRun flag forces a rehearsal for
// that run even when the server is configured to post live; the reverse is
// not possible, a dry-run server never posts.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// DTOs
//

// DispatchRequest is the JSON payload for POST /dispatch. All fields are
// optional: an empty body dispatches everything currently due.
type DispatchRequest struct {
	// PostID restricts the run to one scheduled item.
	PostID string `json:"postId,omitempty" example:"post-1766191475024-x7k2m9q4b"`
	// DryRun forces a rehearsal for this run only.
	DryRun bool `json:"dryRun,omitempty"`
}

// DispatchStatusResponse summarizes queue counters and feed progress.
type DispatchStatusResponse struct {
	Queue map[string]int `json:"queue"`
	Feed  struct {
		Remaining int `json:"remaining"`
		Total     int `json:"total"`
	} `json:"feed"`
}

//
// Handlers
//

// DispatchQueue godoc
// @ID          dispatchQueue
// @Summary     Publish due scheduled posts
// @Description Runs one dispatch pass over the queue. Without a postId every scheduled item whose time has come gets one attempt; failures are isolated per item and leave the item scheduled with its error recorded. With a postId that single item is dispatched and must currently be scheduled.
// @Tags        Dispatch
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.DispatchRequest  false  "Run options"
//
// @Success     200  {object} dispatch.RunSummary
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Post not found"
// @Failure     409  {object} handlers.ErrorResponse "Post is not scheduled"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dispatch [post]
func (h *Handlers) DispatchQueue(c *gin.Context) {
	var req DispatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	summary, err := h.disp.RunQueue(c.Request.Context(), req.PostID, req.DryRun)
	if err != nil {
		mapError(c, err)
		return
	}
	ok(c, http.StatusOK, summary)
}

// DispatchTip godoc
// @ID          dispatchTip
// @Summary     Publish the next feed tip
// @Description Publishes the first unposted tip to twitter and marks it posted on success. A failure leaves the feed untouched so the same tip is retried next run; an exhausted feed answers with posted=false and number 0.
// @Tags        Dispatch
// @Produce     json
//
// @Success     200  {object} dispatch.TipOutcome
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dispatch/tip [post]
func (h *Handlers) DispatchTip(c *gin.Context) {
	out, err := h.disp.RunFeed(c.Request.Context())
	if err != nil {
		mapError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// DispatchStatus godoc
// @ID          dispatchStatus
// @Summary     Dispatch status
// @Description Returns per-status queue counts and how far the tip feed has been consumed.
// @Tags        Dispatch
// @Produce     json
//
// @Success     200  {object} handlers.DispatchStatusResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dispatch/status [get]
func (h *Handlers) DispatchStatus(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.queueSvc.Stats(ctx)
	if err != nil {
		mapError(c, err)
		return
	}
	remaining, total, err := h.tipSvc.Remaining(ctx)
	if err != nil {
		mapError(c, err)
		return
	}

	var resp DispatchStatusResponse
	resp.Queue = stats
	resp.Feed.Remaining = remaining
	resp.Feed.Total = total
	ok(c, http.StatusOK, resp)
}
