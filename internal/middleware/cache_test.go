package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/config"
)

func TestCacheKeySeparatesPathsAndQueries(t *testing.T) {
	e := echo.New()
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/catalog/movies/:id")
		return cacheKey(config.CacheConfig{Prefix: "pos:cache"}, c)
	}

	a := key("/v1/catalog/movies/1")
	assert.Equal(t, a, key("/v1/catalog/movies/1"))
	assert.NotEqual(t, a, key("/v1/catalog/movies/2"))
	assert.NotEqual(t, a, key("/v1/catalog/movies/1?day=2024-10-16"))
	assert.Contains(t, a, "pos:cache:")
}

func TestTeeWriterDropsOversizedBodies(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &teeWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}

	_, _ = w.Write([]byte("abc"))
	assert.False(t, w.truncated)
	_, _ = w.Write([]byte("def"))

	assert.True(t, w.truncated)
	assert.Equal(t, "abcdef", rec.Body.String())
}
