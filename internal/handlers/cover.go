package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tilt_cover/internal/service"
)

const (
	statusOK       = "ok"
	statusAccepted = "accepted"

	errGetState        = "failed to load state"
	errCommand         = "failed to send command"
	errUnavailable     = "cover controller is not running"
	errInvalidBodyPref = "invalid body: "
)

func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondAccepted reports the command as queued, with the current state when
// it can be read. The move itself happens on later ticks.
func (h *Handler) respondAccepted(c *gin.Context, command string) {
	resp := gin.H{"status": statusAccepted, "command": command}
	if st, err := h.services.Monitoring.GetState(c.Request.Context()); err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// commandError maps service errors onto HTTP status codes.
func (h *Handler) commandError(c *gin.Context, command string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPosition),
		errors.Is(err, service.ErrTiltUnsupported),
		errors.Is(err, service.ErrEmptyRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRunnerStopped),
		errors.Is(err, context.DeadlineExceeded):
		h.logAndJSONError(c, http.StatusServiceUnavailable, errUnavailable, "cover_command_unavailable", err, "command", command)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errCommand, "cover_command_failed", err, "command", command)
	}
}

// PositionRequest is the body of POST /api/v1/cover/position. An omitted
// field cancels any pending target on that axis.
type PositionRequest struct {
	// Position from 0 (closed) to 1 (open)
	Position *float64 `json:"position,omitempty" example:"0.3"`
	// Tilt from 0 (closed) to 1 (open); only when tilt is supported
	Tilt *float64 `json:"tilt,omitempty" example:"1"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Open cover
// @Tags         cover
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, command, state"
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/cover/open [post]
// @Security     BearerAuth
func (h *Handler) openCover(c *gin.Context) {
	h.runCommand(c, "open", h.services.Cover.Open)
}

// @Summary      Close cover
// @Tags         cover
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/cover/close [post]
// @Security     BearerAuth
func (h *Handler) closeCover(c *gin.Context) {
	h.runCommand(c, "close", h.services.Cover.Close)
}

// @Summary      Stop cover
// @Tags         cover
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/cover/stop [post]
// @Security     BearerAuth
func (h *Handler) stopCover(c *gin.Context) {
	h.runCommand(c, "stop", h.services.Cover.Stop)
}

// @Summary      Toggle cover
// @Description  Stops a moving cover; otherwise moves toward the opposite of the last direction.
// @Tags         cover
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/cover/toggle [post]
// @Security     BearerAuth
func (h *Handler) toggleCover(c *gin.Context) {
	h.runCommand(c, "toggle", h.services.Cover.Toggle)
}

func (h *Handler) runCommand(c *gin.Context, command string, fn func(context.Context) error) {
	if err := fn(c.Request.Context()); err != nil {
		h.commandError(c, command, err)
		return
	}
	h.respondAccepted(c, command)
}

// @Summary      Move to position
// @Description  Position and tilt range from 0 (closed) to 1 (open).
// @Tags         cover
// @Accept       json
// @Produce      json
// @Param        body  body   PositionRequest  true  "Target payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/cover/position [post]
// @Security     BearerAuth
func (h *Handler) setPosition(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	err := h.services.Cover.SetPosition(c.Request.Context(), service.PositionParams{
		Position: req.Position,
		Tilt:     req.Tilt,
	})
	if err != nil {
		h.commandError(c, "position", err)
		return
	}
	h.respondAccepted(c, "position")
}

// @Summary      Get cover state
// @Tags         cover
// @Produce      json
// @Success      200  {object}  models.CoverState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/cover/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "cover_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Get cover traits
// @Tags         cover
// @Produce      json
// @Success      200  {object}  cover.Traits
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/cover/traits [get]
// @Security     BearerAuth
func (h *Handler) getTraits(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Cover.Traits())
}
