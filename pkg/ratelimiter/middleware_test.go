package ratelimiter_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/ratelimiter"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	newHandler := func(t *testing.T, rate, burst int) http.Handler {
		t.Helper()
		tb, err := ratelimiter.NewTokenBucket(ratelimiter.NewMemoryStore(), rate, time.Minute, ratelimiter.WithBurst(burst))
		require.NoError(t, err)
		mw := ratelimiter.Middleware(tb, ratelimiter.SenderKey)
		return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.NotEmpty(t, body, "body must be restored for the handler")
			w.WriteHeader(http.StatusAccepted)
		}))
	}

	t.Run("limits per sender", func(t *testing.T) {
		t.Parallel()

		handler := newHandler(t, 1, 1)
		send := func(from string) *httptest.ResponseRecorder {
			req := httptest.NewRequest("POST", "/email/send", strings.NewReader(`{"from":"`+from+`","to":["u@x.com"]}`))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec
		}

		rec := send("a@example.com")
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

		rec = send("a@example.com")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), "rate limit exceeded")

		// A different sender has its own bucket.
		rec = send("b@example.com")
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("falls back to client ip without sender", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("POST", "/email/send", strings.NewReader(`{}`))
		req.RemoteAddr = "10.0.0.1:1234"
		assert.Equal(t, "ip:10.0.0.1", ratelimiter.SenderKey(req))
	})

	t.Run("sender key from body", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("POST", "/email/send", strings.NewReader(`{"from":"x@y.com"}`))
		assert.Equal(t, "sender:x@y.com", ratelimiter.SenderKey(req))

		// Body still readable afterwards.
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "x@y.com")
	})
}
