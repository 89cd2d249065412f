package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/team1306/purchase-tracker/internal/errors"
	"github.com/team1306/purchase-tracker/internal/repository"
	"github.com/team1306/purchase-tracker/internal/service"
)

// HTTPHandler exposes the purchase tracker over HTTP. The acting user
// arrives in the X-User-Name header; authentication proper lives in front
// of this service.
type HTTPHandler struct {
	requests  *service.RequestService
	approvals *service.ApprovalService
	roster    *service.RosterCache
	log       zerolog.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(
	requests *service.RequestService,
	approvals *service.ApprovalService,
	roster *service.RosterCache,
	log zerolog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		requests:  requests,
		approvals: approvals,
		roster:    roster,
		log:       log,
	}
}

// Register wires the API routes onto the engine.
func (h *HTTPHandler) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.GET("/requests", h.ListRequests)
		v1.POST("/requests", h.CreateRequest)
		v1.GET("/requests/:id", h.GetRequest)
		v1.PUT("/requests/:id", h.EditRequest)
		v1.DELETE("/requests/:id", h.DeleteRequest)
		v1.POST("/requests/:id/approve", h.Approve)
		v1.POST("/requests/:id/withdraw", h.Withdraw)
		v1.POST("/requests/:id/state", h.ChangeState)
		v1.POST("/requests/bulk-state", h.BulkChangeState)
		v1.GET("/permissions", h.UserPermissions)
		v1.POST("/roster/refresh", h.RefreshRoster)
	}
}

// actingUser extracts the acting user's display name, failing the request
// when it is missing.
func (h *HTTPHandler) actingUser(c *gin.Context) (string, bool) {
	user := c.GetHeader("X-User-Name")
	if user == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-Name header is required"})
		return "", false
	}
	return user, true
}

// writeError maps an application error onto its HTTP status.
func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	code := errors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeUnauthorized:
		status = http.StatusForbidden
	case errors.ErrCodeConflict:
		status = http.StatusConflict
	case errors.ErrCodeUnavailable:
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": errors.MessageOf(err), "code": code})
}

// ListRequests returns the full request snapshot with derived fields.
func (h *HTTPHandler) ListRequests(c *gin.Context) {
	views, err := h.requests.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": views, "total": len(views)})
}

// GetRequest returns one request.
func (h *HTTPHandler) GetRequest(c *gin.Context) {
	view, err := h.requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateRequest creates a new purchase request. The requester is the
// acting user.
func (h *HTTPHandler) CreateRequest(c *gin.Context) {
	user, ok := h.actingUser(c)
	if !ok {
		return
	}

	var in service.CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	in.Requester = user

	view, err := h.requests.Create(c.Request.Context(), &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// EditRequest applies an edit, surfacing tier-change confirmation as a
// 409 with requiresConfirmation set.
func (h *HTTPHandler) EditRequest(c *gin.Context) {
	user, ok := h.actingUser(c)
	if !ok {
		return
	}

	var in service.EditRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	outcome, err := h.requests.SaveEdit(c.Request.Context(), c.Param("id"), user, &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	switch {
	case outcome.Saved:
		c.JSON(http.StatusOK, outcome)
	case outcome.RequiresConfirmation:
		c.JSON(http.StatusConflict, outcome)
	default:
		c.JSON(http.StatusForbidden, outcome)
	}
}

// Approve records an approval on one track.
func (h *HTTPHandler) Approve(c *gin.Context) {
	user, ok := h.actingUser(c)
	if !ok {
		return
	}

	var body struct {
		Track            repository.Track `json:"track"`
		ConfirmOverwrite bool             `json:"confirmOverwrite"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	outcome, err := h.requests.Approve(c.Request.Context(), c.Param("id"), body.Track, user, body.ConfirmOverwrite)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !outcome.Approved {
		c.JSON(http.StatusConflict, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// Withdraw clears the acting user's own approval on one track.
func (h *HTTPHandler) Withdraw(c *gin.Context) {
	user, ok := h.actingUser(c)
	if !ok {
		return
	}

	var body struct {
		Track repository.Track `json:"track"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.requests.Withdraw(c.Request.Context(), c.Param("id"), body.Track, user)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ChangeState moves one request to a new state.
func (h *HTTPHandler) ChangeState(c *gin.Context) {
	user, ok := h.actingUser(c)
	if !ok {
		return
	}

	var body struct {
		State repository.State `json:"state"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.requests.ChangeState(c.Request.Context(), c.Param("id"), body.State, user)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// BulkChangeState applies one state change to many requests. Partial
// failure returns 409 with per-request results.
func (h *HTTPHandler) BulkChangeState(c *gin.Context) {
	user, ok := h.actingUser(c)
	if !ok {
		return
	}

	var body struct {
		RequestIDs []string         `json:"requestIds"`
		State      repository.State `json:"state"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || len(body.RequestIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	results, err := h.requests.BulkChangeState(c.Request.Context(), body.RequestIDs, body.State, user)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": errors.MessageOf(err), "results": results})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// DeleteRequest hard-removes a request when the rules allow it.
func (h *HTTPHandler) DeleteRequest(c *gin.Context) {
	user, ok := h.actingUser(c)
	if !ok {
		return
	}

	decision, err := h.requests.Delete(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !decision.Allowed {
		c.JSON(http.StatusForbidden, decision)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// UserPermissions returns the acting user's approval capabilities.
func (h *HTTPHandler) UserPermissions(c *gin.Context) {
	user, ok := h.actingUser(c)
	if !ok {
		return
	}

	perms, err := h.approvals.Permissions(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, perms)
}

// RefreshRoster invalidates the roster snapshot so the next decision
// reloads it.
func (h *HTTPHandler) RefreshRoster(c *gin.Context) {
	h.roster.Invalidate()
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}
