package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tilt_cover/internal/service"
)

const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// queryError is a 400 caused by one query parameter.
type queryError struct {
	param string
	msg   string
}

func (e *queryError) Error() string { return "invalid '" + e.param + "': " + e.msg }

// parseLogFilter reads from, to, type and limit. A date-only 'to' covers the
// whole day.
func parseLogFilter(c *gin.Context) (service.LogFilter, error) {
	f := service.LogFilter{Type: strings.ToUpper(strings.TrimSpace(c.Query("type")))}

	if qs := c.Query("from"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, &queryError{"from", "use RFC3339, 'YYYY-MM-DD HH:MM:SS' or YYYY-MM-DD"}
		}
		f.From = t
	}
	if qs := c.Query("to"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, &queryError{"to", "use RFC3339, 'YYYY-MM-DD HH:MM:SS' or YYYY-MM-DD"}
		}
		if !strings.ContainsAny(qs, "T ") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = t
	}
	if qs := c.Query("limit"); qs != "" {
		n, err := strconv.Atoi(qs)
		if err != nil || n <= 0 {
			return f, &queryError{"limit", "must be a positive integer"}
		}
		f.Limit = n
	}
	return f, nil
}

// parseQueryTime accepts RFC3339, date-time or date-only input, in UTC.
func parseQueryTime(s string) (time.Time, error) {
	var err error
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

// @Summary      List logs
// @Description  Command and settle events, oldest first. A date-only 'to' is inclusive of the whole day.
// @Tags         logs
// @Produce      json
// @Param        from   query   string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2025-08-01)
// @Param        to     query   string  false  "End of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2025-08-31)
// @Param        type   query   string  false  "Event type"  Enums(OPEN,CLOSE,STOP,TOGGLE,MOVE,SETTLED,ERROR)
// @Param        limit  query   int     false  "Newest N events (default 500, max 5000)"
// @Success      200    {object}  map[string]interface{}  "count, events"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	f, err := parseLogFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
	case errors.Is(err, service.ErrUnknownEventType),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrInvalidLimit):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load logs", "logs_list_failed", err,
			"from", f.From, "to", f.To, "type", f.Type)
	}
}
