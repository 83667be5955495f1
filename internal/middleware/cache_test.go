package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-booking/internal/config"
)

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "seatmap",
		MaxBodyBytes: 1 << 20,
	}
}

func TestRedisCacheHitServesStoredResponse(t *testing.T) {
	rdb := newTestRedis(t)
	mw := NewRedisCache(cacheCfg(), rdb)
	e := echo.New()

	calls := 0
	h := mw(func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"seats": []int{1, 2, 3}})
	})

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/seats", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/seats")
		require.NoError(t, h(c))
		return rec
	}

	first := do()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := do()
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)
}

func TestRedisCacheSkipsUncachedMethods(t *testing.T) {
	rdb := newTestRedis(t)
	mw := NewRedisCache(cacheCfg(), rdb)
	e := echo.New()

	calls := 0
	h := mw(func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/bookings")
		require.NoError(t, h(c))
	}
	assert.Equal(t, 2, calls)
}

func TestRedisCacheQueryIsPartOfKey(t *testing.T) {
	rdb := newTestRedis(t)
	mw := NewRedisCache(cacheCfg(), rdb)
	e := echo.New()

	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, c.QueryParam("at"))
	})

	do := func(query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/seats/availability?"+query, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/seats/availability")
		require.NoError(t, h(c))
		return rec
	}

	a := do("at=2026-03-01T10:00:00Z")
	b := do("at=2026-03-01T11:00:00Z")
	assert.NotEqual(t, a.Body.String(), b.Body.String())
	assert.Equal(t, "MISS", b.Header().Get("X-Cache"))
}

func TestRedisCacheDisabledPassesThrough(t *testing.T) {
	cfg := cacheCfg()
	cfg.Enabled = false
	mw := NewRedisCache(cfg, nil)
	e := echo.New()

	calls := 0
	h := mw(func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/seats", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/seats")
		require.NoError(t, h(c))
	}
	assert.Equal(t, 2, calls)
}

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	body := []byte(`{"seats":[]}`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	_, _, _, ok := decodePayload([]byte("short"))
	assert.False(t, ok)
}
