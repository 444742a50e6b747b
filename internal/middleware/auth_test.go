package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/postboard/internal/auth"
	"github.com/xxxsen/postboard/internal/pkg/errcode"
)

type stubVerifier map[string]*auth.Identity

func (s stubVerifier) Verify(token string) (*auth.Identity, bool) {
	id, ok := s[token]
	return id, ok
}

func newGateRouter(seen **auth.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(stubVerifier{"good": {UserID: "u1", Email: "a@b.com"}}))
	r.GET("/open", func(c *gin.Context) {
		id, _ := auth.FromContext(c.Request.Context())
		*seen = id
		c.Status(http.StatusOK)
	})
	r.GET("/closed", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuthenticateIsSoft(t *testing.T) {
	tests := []struct {
		name   string
		header string
		wantID string
	}{
		{name: "no header"},
		{name: "wrong scheme", header: "Basic good"},
		{name: "lowercase scheme", header: "bearer good"},
		{name: "missing token", header: "Bearer "},
		{name: "invalid token", header: "Bearer bad"},
		{name: "valid token", header: "Bearer good", wantID: "u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *auth.Identity
			r := newGateRouter(&seen)
			req := httptest.NewRequest(http.MethodGet, "/open", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)
			require.Equal(t, http.StatusOK, resp.Code)
			if tt.wantID == "" {
				require.Nil(t, seen)
				return
			}
			require.NotNil(t, seen)
			require.Equal(t, tt.wantID, seen.UserID)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	var seen *auth.Identity
	r := newGateRouter(&seen)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/closed", nil))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	require.Equal(t, float64(errcode.ErrUnauthorized), env["code"])

	req := httptest.NewRequest(http.MethodGet, "/closed", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestAuthenticateSetsOnlyUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var (
		keyCount int
		userID   string
	)
	r := gin.New()
	r.Use(Authenticate(stubVerifier{"good": {UserID: "u1", Email: "a@b.com"}}))
	r.GET("/", func(c *gin.Context) {
		keyCount = len(c.Keys)
		userID = c.GetString(ContextUserIDKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, 1, keyCount)
	require.Equal(t, "u1", userID)
}
