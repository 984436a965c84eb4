package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"navi-route-go/internal/ratelimit"
	"navi-route-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLogger(buf *bytes.Buffer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func perform(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Detail
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(newLogger(&buf)))
	r.GET("/ping", okHandler)

	w := perform(r, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, id, entry["request_id"])
	assert.Equal(t, "/ping", entry["path"])
	assert.EqualValues(t, http.StatusOK, entry["status"])
}

func TestRequestLogger_KeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(newLogger(&buf)))
	r.GET("/ping", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "trace-42")
	w := perform(r, req)

	assert.Equal(t, "trace-42", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"trace-42"`)
}

func TestRecovery_ReturnsGenericError(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Recovery(newLogger(&buf)))
	r.GET("/boom", func(c *gin.Context) {
		panic("database exploded")
	})

	w := perform(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, InternalErrorMessage, decodeDetail(t, w))
	assert.NotContains(t, w.Body.String(), "database exploded")
	assert.Contains(t, buf.String(), "database exploded")
}

func TestRateLimit_RejectsWith429(t *testing.T) {
	var buf bytes.Buffer
	rejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "rejected_total"})

	r := gin.New()
	r.Use(RateLimit(ratelimit.New(3, time.Minute), rejected, newLogger(&buf)))
	r.GET("/ping", okHandler)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		require.Equal(t, http.StatusOK, perform(r, req).Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "192.0.2.10:5001"
	w := perform(r, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"detail":"Rate limit exceeded"}`, w.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(rejected))

	other := httptest.NewRequest(http.MethodGet, "/ping", nil)
	other.RemoteAddr = "192.0.2.11:5000"
	assert.Equal(t, http.StatusOK, perform(r, other).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RateLimit(ratelimit.New(0, time.Minute), nil, newLogger(&buf)))
	r.GET("/ping", okHandler)

	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusOK, perform(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	}
}

func TestAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		header   string
		status   int
		detail   string
	}{
		{name: "disabled", expected: "", header: "", status: http.StatusOK},
		{name: "missing", expected: "secret", header: "", status: http.StatusUnauthorized, detail: "API Key is missing"},
		{name: "invalid", expected: "secret", header: "guess", status: http.StatusUnauthorized, detail: "Invalid API Key"},
		{name: "valid", expected: "secret", header: "secret", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(APIKey(tt.expected))
			r.GET("/ping", okHandler)

			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set(APIKeyHeader, tt.header)
			}
			w := perform(r, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, decodeDetail(t, w))
			}
		})
	}
}
