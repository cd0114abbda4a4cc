package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tank_supervisor/internal/service"

	"github.com/gin-gonic/gin"
)

// Accepted forms for the from/to query bounds, most specific first.
var logTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

type logsQuery struct {
	From  string `form:"from"`
	To    string `form:"to"`
	Type  string `form:"type"`
	Login string `form:"login"`
}

// filter parses the bounds. A date-only "to" covers that whole day.
func (q logsQuery) filter() (service.LogFilter, error) {
	f := service.LogFilter{Type: q.Type, Login: q.Login}
	var err error
	if q.From != "" {
		if f.From, err = parseLogTime(q.From); err != nil {
			return f, fmt.Errorf("from: %w", err)
		}
	}
	if q.To != "" {
		if f.To, err = parseLogTime(q.To); err != nil {
			return f, fmt.Errorf("to: %w", err)
		}
		if !strings.ContainsAny(q.To, "T ") {
			f.To = f.To.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return f, nil
}

func parseLogTime(s string) (time.Time, error) {
	for _, layout := range logTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'", s)
}

// @Summary      Event history
// @Description  Session, actuation and plant events, oldest first. A date-only 'to' includes the whole day.
// @Tags         logs
// @Produce      json
// @Param        from   query   string  false  "Start (RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD')"  example(2025-08-01)
// @Param        to     query   string  false  "End, inclusive"  example(2025-08-31)
// @Param        type   query   string  false  "Event type"  Enums(LOGIN,LOGIN_REJECTED,LOGOUT,ACTUATION,ACTUATION_DENIED,CLIENT_ERROR,SERVER_START,OVERFLOW,SHUTDOWN)
// @Param        login  query   string  false  "Only events attributed to this user"  example(admin001)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	var q logsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := q.filter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	switch {
	case errors.Is(err, service.ErrInvalidTimeRange), errors.Is(err, service.ErrUnknownEventType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		if h.log != nil {
			h.log.Errorw("logs_list_failed", "err", err, "type", f.Type, "login", f.Login)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}
