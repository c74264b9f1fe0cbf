package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkwell/utils"
)

// PageViewStore counts a rendered page.
type PageViewStore interface {
	RecordPageView(ctx context.Context, path string, at time.Time) error
}

// PageViewRecorder records successful GET page renders per day and path.
func PageViewRecorder(views PageViewStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		path := c.Request.URL.Path
		// non-page endpoints would skew the counts
		if path == "/health" || path == "/auth/captcha" || strings.HasPrefix(path, "/static/") {
			return
		}

		if err := views.RecordPageView(c.Request.Context(), path, time.Now()); err != nil {
			utils.Sugar.Warnw("record page view failed", "path", path, "error", err)
		}
	}
}
