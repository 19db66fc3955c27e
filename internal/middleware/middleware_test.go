package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sbms/facilities-server/internal/auth"
	"github.com/sbms/facilities-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const secret = "middleware-secret"

func token(t *testing.T, role models.Role) string {
	t.Helper()
	tok, _, err := auth.Issue([]byte(secret), &models.User{ID: 3, Username: "someone", Role: role}, time.Hour, time.Now())
	require.NoError(t, err)
	return tok
}

func echoActor(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())
	json.NewEncoder(w).Encode(actor)
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(secret)(http.HandlerFunc(echoActor))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token(t, models.RoleOfficer), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, models.RoleOfficer))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var got models.Actor
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, models.Actor{ID: 3, Username: "someone", Role: models.RoleOfficer}, got)
}

func TestRequireRole(t *testing.T) {
	h := RequireAuth(secret)(RequireRole(models.RoleAdmin, models.RoleOfficer)(http.HandlerFunc(echoActor)))

	for role, want := range map[models.Role]int{
		models.RoleAdmin:   http.StatusOK,
		models.RoleOfficer: http.StatusOK,
		models.RoleStudent: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPatch, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}

	rec := httptest.NewRecorder()
	RequireRole(models.RoleAdmin)(http.HandlerFunc(echoActor)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	h := rateLimit(2, func() time.Time { return now })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000"))

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1003"))
}

func TestRateLimit_DisabledWhenNonPositive(t *testing.T) {
	h := RateLimit(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestStructuredLoggerAndMetricsPassThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(StructuredLogger(zaptest.NewLogger(t)))
	r.Use(Metrics())
	r.Use(SecurityHeaders())
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/7", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
