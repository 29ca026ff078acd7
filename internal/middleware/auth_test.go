package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/service/audit"
	"github.com/jwalitptl/hms-api/pkg/auth"
)

func authRouter(m *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("", m.Authenticate())
	api.GET("/read", func(c *gin.Context) {
		c.String(http.StatusOK, audit.ActorFromContext(c.Request.Context()))
	})
	api.POST("/write", m.RequireRole(auth.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", "hms-api", time.Hour)
	r := authRouter(NewAuthMiddleware(jwtSvc))

	staffToken, err := jwtSvc.GenerateToken("nurse-1", auth.RoleStaff)
	require.NoError(t, err)
	adminToken, err := jwtSvc.GenerateToken("admin-1", auth.RoleAdmin)
	require.NoError(t, err)
	foreign, err := auth.NewJWTService("other-secret", "hms-api", time.Hour).GenerateToken("x", auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{"missing header", http.MethodGet, "/read", "", http.StatusUnauthorized},
		{"wrong scheme", http.MethodGet, "/read", "Basic abc", http.StatusUnauthorized},
		{"foreign signature", http.MethodGet, "/read", "Bearer " + foreign, http.StatusUnauthorized},
		{"staff can read", http.MethodGet, "/read", "Bearer " + staffToken, http.StatusOK},
		{"staff cannot write", http.MethodPost, "/write", "Bearer " + staffToken, http.StatusForbidden},
		{"admin can write", http.MethodPost, "/write", "Bearer " + adminToken, http.StatusNoContent},
		{"lower-case scheme", http.MethodPost, "/write", "bearer " + adminToken, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthenticateSetsActor(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", "hms-api", time.Hour)
	r := authRouter(NewAuthMiddleware(jwtSvc))

	token, err := jwtSvc.GenerateToken("dr-house", auth.RoleDoctor)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dr-house", w.Body.String())
}

func TestAuthenticateDisabled(t *testing.T) {
	r := authRouter(NewAuthMiddleware(nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/write", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/read", nil))
	assert.Equal(t, audit.SystemActor, w.Body.String())
}
