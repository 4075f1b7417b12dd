package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"loginprobe/pkg/cache"
	"loginprobe/pkg/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCorrelationIDGeneratesAndPropagates(t *testing.T) {
	var seen string
	h := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/auth/login", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggingRecordsRouteStatusAndSize(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("authstub", &buf, zerolog.InfoLevel)

	r := mux.NewRouter()
	r.Use(NewLoggingMiddleware(log).Log)
	r.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
	}).Methods("POST")

	req := httptest.NewRequest("POST", "/api/auth/login?next=/me", nil)
	req.Header.Set("User-Agent", "curl/8.0")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "Request rejected", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.EqualValues(t, http.StatusUnauthorized, entry["status"])
	assert.EqualValues(t, len(`{"error":"Invalid credentials"}`), entry["bytes"])
	assert.Equal(t, "/api/auth/login", entry["route"])
	assert.Equal(t, "curl/8.0", entry["user_agent"])
}

func TestLoggingLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		level   string
		message string
	}{
		{"success", http.StatusOK, "info", "Request served"},
		{"client error", http.StatusTooManyRequests, "warn", "Request rejected"},
		{"server error", http.StatusInternalServerError, "error", "Request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewWithWriter("authstub", &buf, zerolog.InfoLevel)
			h := NewLoggingMiddleware(log).Log(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/unrouted", nil))

			entry := decodeLogLine(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, tt.message, entry["message"])
			assert.Equal(t, "/unrouted", entry["route"])
			assert.NotContains(t, entry, "user_agent")
		})
	}
}

func TestLoggingDefaultsToOKWhenHandlerOnlyWrites(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("authstub", &buf, zerolog.InfoLevel)
	h := NewLoggingMiddleware(log).Log(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	entry := decodeLogLine(t, &buf)
	assert.EqualValues(t, http.StatusOK, entry["status"])
	assert.EqualValues(t, 2, entry["bytes"])
}

func TestRecoveryReturnsJSON500(t *testing.T) {
	h := Recovery(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Server error"}`, w.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

var unauthorizedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusUnauthorized)
})

func newMiniredisCounter(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func sendFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	c, mr := newMiniredisCounter(t)
	h := NewRateLimiter(c, 2, 15*time.Minute, logger.NewNop()).Limit(unauthorizedHandler)

	w := sendFrom(h, "10.0.0.1:5555")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusUnauthorized, sendFrom(h, "10.0.0.1:5555").Code)

	w = sendFrom(h, "10.0.0.1:5555")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "900", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many login attempts, please try again later"}`, w.Body.String())

	// Another client has its own window.
	assert.Equal(t, http.StatusUnauthorized, sendFrom(h, "10.0.0.2:5555").Code)

	mr.FastForward(15*time.Minute + time.Second)
	assert.Equal(t, http.StatusUnauthorized, sendFrom(h, "10.0.0.1:5555").Code)
}

func TestRateLimiterRecoversFromCounterWithoutTTL(t *testing.T) {
	c, mr := newMiniredisCounter(t)
	h := NewRateLimiter(c, 5, 15*time.Minute, logger.NewNop()).Limit(unauthorizedHandler)

	// Over the limit and missing its expiry.
	require.NoError(t, mr.Set("ratelimit:login:10.0.0.9", "5"))

	w := sendFrom(h, "10.0.0.9:5555")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "900", w.Header().Get("Retry-After"))

	mr.FastForward(15*time.Minute + time.Second)
	assert.Equal(t, http.StatusUnauthorized, sendFrom(h, "10.0.0.9:5555").Code)
}

func TestRateLimiterResetsWindowOnSuccess(t *testing.T) {
	c, mr := newMiniredisCounter(t)
	status := http.StatusUnauthorized
	h := NewRateLimiter(c, 3, 15*time.Minute, logger.NewNop()).Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusUnauthorized, sendFrom(h, "10.0.0.3:5555").Code)
	}
	require.True(t, mr.Exists("ratelimit:login:10.0.0.3"))

	status = http.StatusOK
	assert.Equal(t, http.StatusOK, sendFrom(h, "10.0.0.3:5555").Code)
	assert.False(t, mr.Exists("ratelimit:login:10.0.0.3"))

	// The full allowance is available again.
	status = http.StatusUnauthorized
	w := sendFrom(h, "10.0.0.3:5555")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Remaining"))
}

type mockCounter struct {
	mock.Mock
}

func (m *mockCounter) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	args := m.Called(ctx, key, window)
	return args.Get(0).(int64), args.Get(1).(time.Duration), args.Error(2)
}

func (m *mockCounter) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestRateLimiterFailsClosedWhenCounterErrors(t *testing.T) {
	counter := &mockCounter{}
	counter.On("IncrementWindow", mock.Anything, "ratelimit:login:192.0.2.1", time.Minute).
		Return(int64(0), time.Duration(0), assert.AnError)

	h := NewRateLimiter(counter, 5, time.Minute, logger.NewNop()).Limit(okHandler)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/auth/login", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	counter.AssertExpectations(t)
}

func TestRateLimiterFallsBackToWindowForRetryAfter(t *testing.T) {
	counter := &mockCounter{}
	counter.On("IncrementWindow", mock.Anything, "ratelimit:login:192.0.2.1", time.Minute).
		Return(int64(6), time.Duration(0), nil)

	h := NewRateLimiter(counter, 5, time.Minute, logger.NewNop()).Limit(okHandler)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/auth/login", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	counter.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRateLimiterKeepsServingWhenResetFails(t *testing.T) {
	counter := &mockCounter{}
	counter.On("IncrementWindow", mock.Anything, "ratelimit:login:192.0.2.1", time.Minute).
		Return(int64(1), time.Minute, nil)
	counter.On("Delete", mock.Anything, "ratelimit:login:192.0.2.1").Return(assert.AnError)

	h := NewRateLimiter(counter, 5, time.Minute, logger.NewNop()).Limit(okHandler)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/auth/login", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	counter.AssertExpectations(t)
}
