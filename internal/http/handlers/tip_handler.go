// Tip feed HTTP handlers.
//
// This file exposes REST endpoints for the recurring tip feed:
//   - GET  /tips   (full feed in stored order, plus progress counters)
//   - POST /tips   (append tips; numbering continues after the current max)
//
// The feed is consumed elsewhere (see the dispatch endpoints); the HTTP
// surface never reorders it or flips posted flags directly.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courtlab/go-publish-backend/internal/domain"
)

//
// DTOs
//

// AddTipsRequest is the JSON payload for appending tips to the feed.
type AddTipsRequest struct {
	Tips []TipInput `json:"tips" binding:"required"`
}

// TipInput is one new tip; numbers are assigned server-side.
type TipInput struct {
	Title   string `json:"title" example:"Footwork first"`
	Content string `json:"content" binding:"required" example:"Split step before every return."`
}

// ListTipsResponse wraps the feed with its progress counters.
type ListTipsResponse struct {
	Tips      []domain.Tip `json:"tips"`
	Total     int          `json:"total"`
	Remaining int          `json:"remaining"`
}

// AddTipsResponse returns the appended tips with their assigned numbers.
type AddTipsResponse struct {
	Added []domain.Tip `json:"added"`
	Count int          `json:"count"`
}

//
// Handlers
//

// ListTips godoc
// @ID          listTips
// @Summary     List the tip feed
// @Description Returns every tip in stored order together with how many are still unposted. The first unposted entry is always the next one to publish.
// @Tags        Tips
// @Produce     json
//
// @Success     200  {object} handlers.ListTipsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /tips [get]
func (h *Handlers) ListTips(c *gin.Context) {
	ctx := c.Request.Context()
	tips, err := h.tipSvc.List(ctx)
	if err != nil {
		mapError(c, err)
		return
	}
	remaining := 0
	for _, t := range tips {
		if !t.Posted {
			remaining++
		}
	}
	ok(c, http.StatusOK, ListTipsResponse{Tips: tips, Total: len(tips), Remaining: remaining})
}

// AddTips godoc
// @ID          addTips
// @Summary     Append tips to the feed
// @Description Adds tips to the end of the feed. Numbers continue after the current maximum, so re-adding after deletions never collides.
// @Tags        Tips
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.AddTipsRequest  true  "Tips to append"
//
// @Success     201  {object} handlers.AddTipsResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /tips [post]
func (h *Handlers) AddTips(c *gin.Context) {
	var req AddTipsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Tips) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "at least one tip required")
		return
	}

	tips := make([]domain.Tip, 0, len(req.Tips))
	for _, in := range req.Tips {
		tips = append(tips, domain.Tip{Title: in.Title, Content: in.Content})
	}

	added, err := h.tipSvc.Add(c.Request.Context(), tips)
	if err != nil {
		mapError(c, err)
		return
	}
	ok(c, http.StatusCreated, AddTipsResponse{Added: added, Count: len(added)})
}
