package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader echoes the id logged with each request.
const RequestIDHeader = "X-Request-ID"

var (
	okLabel   = color.New(color.FgWhite).Add(color.BgGreen)
	errLabel  = color.New(color.FgWhite).Add(color.BgRed)
	fastTime  = color.New(color.FgWhite, color.Faint)
	slowTime  = color.New(color.FgWhite).Add(color.BgCyan)
	slowAfter = 100 * time.Millisecond
)

// accessLog logs one line per request. Labels are colored when the
// terminal supports it; see color.NoColor.
func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"duration", elapsed,
			"request_id", id,
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.Last().Error())
		}

		logger.Info(statusLabel(status)+" "+durationLabel(elapsed), attrs...)
	}
}

func statusLabel(status int) string {
	if status >= 400 {
		return errLabel.Sprint(" ERR ")
	}
	return okLabel.Sprint(" OK  ")
}

func durationLabel(d time.Duration) string {
	c := fastTime
	if d > slowAfter {
		c = slowTime
	}
	return c.Sprint(fmt.Sprintf("%13v", d))
}
