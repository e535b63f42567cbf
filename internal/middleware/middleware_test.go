package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/knowledgehub/internal/apperr"
	"github.com/iliyamo/knowledgehub/internal/config"
	"github.com/iliyamo/knowledgehub/internal/utils"
)

type stubAuth struct {
	id     utils.Identity
	err    error
	tokens []string
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (utils.Identity, error) {
	s.tokens = append(s.tokens, token)
	return s.id, s.err
}

func runJWT(t *testing.T, auth Authenticator, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	err := JWTAuth(auth)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return c, err
}

func TestJWTAuth_MissingOrMalformedHeader(t *testing.T) {
	for _, h := range []string{"", "Token abc", "Bearer", "Bearer    "} {
		auth := &stubAuth{}
		_, err := runJWT(t, auth, h)
		var ae *apperr.Error
		require.True(t, errors.As(err, &ae), "header %q", h)
		assert.Equal(t, "Authorization token required", ae.Message)
		assert.Empty(t, auth.tokens, "authenticator must not be called")
	}
}

func TestJWTAuth_PropagatesAuthenticatorError(t *testing.T) {
	_, err := runJWT(t, &stubAuth{err: apperr.RevokedToken()}, "Bearer abc")
	assert.True(t, apperr.Is(err, apperr.KindRevokedToken))
}

func TestJWTAuth_SetsIdentity(t *testing.T) {
	auth := &stubAuth{id: utils.Identity{UserID: 9, Username: "alice"}}
	c, err := runJWT(t, auth, "bearer tok-123")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-123"}, auth.tokens)

	id, ok := CurrentUser(c)
	require.True(t, ok)
	assert.Equal(t, utils.Identity{UserID: 9, Username: "alice"}, id)
	assert.Equal(t, "tok-123", CurrentToken(c))
	assert.Equal(t, "9", userKey(c))
}

func TestCurrentUser_Anonymous(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, ok := CurrentUser(c)
	assert.False(t, ok)
	assert.Equal(t, "anon", userKey(c))
}

func rateCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: time.Hour, KeyStrategy: "ip", Prefix: "rl",
	}
}

func TestTokenBucket_MemoryFallbackDenies(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(rateCfg(), nil))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		last = rec
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	var body map[string]any
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Too many requests, please try again later.", body["message"])
	assert.Equal(t, "Rate limit exceeded", body["error"])
	assert.Contains(t, body, "data")
}

func TestTokenBucket_RedisErrorFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	e.Use(NewTokenBucket(rateCfg(), rdb))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestTokenBucket_Disabled(t *testing.T) {
	cfg := rateCfg()
	cfg.Enabled = false
	cfg.Capacity = 1
	e := echo.New()
	e.Use(NewTokenBucket(cfg, nil))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/articles", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/articles")
	c.Set(ctxUserID, uint64(5))

	cfg := rateCfg()
	assert.Equal(t, "rl:ip:10.0.0.1", buildRateKey(cfg, c))
	cfg.KeyStrategy = "user_route"
	assert.Equal(t, "rl:user:5:route:POST /api/articles", buildRateKey(cfg, c))
	cfg.KeyStrategy = ""
	assert.Equal(t, "rl:ip:10.0.0.1:user:5:route:POST /api/articles", buildRateKey(cfg, c))
}

func TestAsInt64(t *testing.T) {
	assert.EqualValues(t, 3, asInt64(int64(3)))
	assert.EqualValues(t, 4, asInt64("4"))
	assert.EqualValues(t, 0, asInt64(nil))
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

func TestCacheKey_DependsOnQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "kh:cache", KeyStrategy: "route_query"}
	e := echo.New()
	a := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/articles?page=1", nil), httptest.NewRecorder())
	b := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/articles?page=2", nil), httptest.NewRecorder())
	assert.NotEqual(t, cacheKeyFrom(cfg, a, 0), cacheKeyFrom(cfg, b, 0))
	assert.NotEqual(t, cacheKeyFrom(cfg, a, 0), cacheKeyFrom(cfg, a, 1))
	assert.Regexp(t, `^kh:cache:g3:[0-9a-f]{40}$`, cacheKeyFrom(cfg, a, 3))
}

func TestRedisCache_PassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	rc := NewResponseCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil)
	assert.NoError(t, rc.Invalidate(context.Background()))
	e.Use(rc.Middleware())
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "fresh") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "fresh", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func newCachedEcho(t *testing.T, rdb *redis.Client) (*echo.Echo, *ResponseCache, *int) {
	t.Helper()
	rc := NewResponseCache(config.CacheConfig{
		Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "test:cache",
	}, rdb)
	hits := 0
	e := echo.New()
	e.Use(rc.Middleware())
	e.GET("/x", func(c echo.Context) error {
		hits++
		return c.String(http.StatusOK, fmt.Sprintf("body-%d", hits))
	})
	return e, rc, &hits
}

func getX(e *echo.Echo, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestResponseCache_HitMissAndInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	e, rc, hits := newCachedEcho(t, rdb)

	rec := getX(e, "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "body-1", rec.Body.String())

	rec = getX(e, "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "body-1", rec.Body.String())
	assert.Equal(t, 1, *hits)

	require.NoError(t, rc.Invalidate(context.Background()))
	rec = getX(e, "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "body-2", rec.Body.String())

	rec = getX(e, "Bearer abc")
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Equal(t, "body-3", rec.Body.String())
}

func TestResponseCache_RedisDownServesUncached(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	e, rc, hits := newCachedEcho(t, rdb)

	assert.Equal(t, "body-1", getX(e, "").Body.String())
	assert.Equal(t, "body-2", getX(e, "").Body.String())
	assert.Equal(t, 2, *hits)
	assert.Error(t, rc.Invalidate(context.Background()))
}
