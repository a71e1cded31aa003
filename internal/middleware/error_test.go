package middleware_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"

	"github.com/pageza/pantrypal/backend/internal/middleware"
	"github.com/pageza/pantrypal/backend/internal/models"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", models.NewValidationError("Name is required"), http.StatusBadRequest, "Name is required"},
		{"unauthorized", models.NewUnauthorizedError("Invalid email or password"), http.StatusUnauthorized, "Invalid email or password"},
		{"forbidden", models.NewForbiddenError("You are not allowed to delete this recipe"), http.StatusForbidden, "You are not allowed to delete this recipe"},
		{"not found", models.NewNotFoundError("Recipe not found"), http.StatusNotFound, "Recipe not found"},
		{"conflict", models.NewConflictError("User already exists"), http.StatusConflict, "User already exists"},
		{"plain error hides cause", errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine()
			r.GET("/", func(c *gin.Context) { middleware.WriteError(c, tt.err) })

			w := doGet(r, "/", "")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, message(t, w))
		})
	}
}

func TestRecovery(t *testing.T) {
	r := newEngine()
	r.Use(middleware.Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := doGet(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", message(t, w))
}

func TestNotFound(t *testing.T) {
	r := newEngine()
	r.NoRoute(middleware.NotFound())

	w := doGet(r, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", message(t, w))
}

func TestCORS(t *testing.T) {
	r := newEngine()
	r.Use(middleware.CORS([]string{"http://localhost:5173"}))
	r.GET("/api/recipes", func(c *gin.Context) { c.Status(http.StatusOK) })

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/recipes", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := preflight("http://localhost:5173")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = preflight("http://evil.example")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	r := newEngine()
	r.Use(middleware.RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside handler")
		c.Status(http.StatusOK)
	})

	t.Run("echoes incoming id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
		assert.Contains(t, buf.String(), `"message":"inside handler"`)
		assert.Contains(t, buf.String(), `"request_id":"req-123"`)
		assert.Contains(t, buf.String(), `"status":200`)
		assert.Contains(t, buf.String(), `"message":"request completed"`)
	})

	t.Run("generates an id", func(t *testing.T) {
		w := doGet(r, "/ping", "")
		assert.Len(t, w.Header().Get(middleware.RequestIDHeader), 36)
	})
}

func TestMetrics(t *testing.T) {
	r := newEngine()
	r.Use(middleware.Metrics())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := middleware.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "200")
	unmatched := middleware.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	before, beforeUnmatched := testutil.ToFloat64(counter), testutil.ToFloat64(unmatched)

	doGet(r, "/items/1", "")
	doGet(r, "/items/2", "")
	doGet(r, "/missing", "")

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
	assert.Equal(t, beforeUnmatched+1, testutil.ToFloat64(unmatched))
}
