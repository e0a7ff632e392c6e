package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/now-lms/lms-api/internal/service"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	m.entries = map[string][]byte{}
	return nil
}

func newPageCacheRouter(repo *memoryCacheRepo, hits *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cacheSvc := service.NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/catalog", PageCache(cacheSvc, time.Minute, zap.NewNop()), func(c *gin.Context) {
		*hits++
		c.JSON(http.StatusOK, gin.H{"visits": *hits})
	})
	r.GET("/private", func(c *gin.Context) {
		c.Set(ContextUserKey, "claims")
		c.Next()
	}, PageCache(cacheSvc, time.Minute, zap.NewNop()), func(c *gin.Context) {
		*hits++
		c.JSON(http.StatusOK, gin.H{"visits": *hits})
	})
	return r
}

func TestPageCacheServesAnonymousFromCache(t *testing.T) {
	repo := newMemoryCacheRepo()
	hits := 0
	router := newPageCacheRouter(repo, &hits)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/catalog?page=1", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/catalog?page=1", nil))
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, hits)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestPageCacheKeyIncludesQuery(t *testing.T) {
	repo := newMemoryCacheRepo()
	hits := 0
	router := newPageCacheRouter(repo, &hits)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/catalog?page=1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/catalog?page=2", nil))

	assert.Equal(t, 2, hits)
}

func TestPageCacheBypassesAuthenticated(t *testing.T) {
	repo := newMemoryCacheRepo()
	hits := 0
	router := newPageCacheRouter(repo, &hits)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/private", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/private", nil))

	assert.Equal(t, 2, hits)
	assert.Empty(t, repo.entries)
}
