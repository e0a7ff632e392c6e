package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/now-lms/lms-api/internal/service"
)

type cachedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(p []byte) (int, error) {
	w.buf.Write(p)
	return w.ResponseWriter.Write(p)
}

// PageCache serves cached GET responses for anonymous visitors. The cache key
// carries an auth-state discriminator so a page rendered for a logged-in user
// is never stored under, or served from, the anonymous entry. Authenticated
// requests always bypass the cache.
func PageCache(cacheSvc *service.CacheService, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || !cacheSvc.Enabled() {
			SetCacheState(c, CacheBypass)
			c.Next()
			return
		}

		authState := "anon"
		if _, authenticated := c.Get(ContextUserKey); authenticated {
			authState = "auth"
		}
		if authState != "anon" {
			SetCacheState(c, CacheBypass)
			c.Next()
			return
		}

		key := fmt.Sprintf("page:%s:%s?%s", authState, c.Request.URL.Path, c.Request.URL.RawQuery)

		var page cachedPage
		hit, err := cacheSvc.Get(c.Request.Context(), key, &page)
		if err != nil {
			logger.Warn("page cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		if hit {
			SetCacheState(c, CacheHit)
			c.Data(page.Status, page.ContentType, page.Body)
			c.Abort()
			return
		}

		SetCacheState(c, CacheMiss)
		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if status != http.StatusOK {
			return
		}
		entry := cachedPage{
			Status:      status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.buf.Bytes(),
		}
		if err := cacheSvc.Set(c.Request.Context(), key, entry, ttl); err != nil {
			logger.Warn("page cache store failed", zap.String("key", key), zap.Error(err))
		}
	}
}
