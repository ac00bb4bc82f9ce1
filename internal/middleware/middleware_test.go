package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/comanda-app/backend/internal/auth"
	"github.com/comanda-app/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func protected(jwtSvc *auth.JWTService, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(jwtSvc)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := TenantID(c)
		c.JSON(http.StatusOK, gin.H{"tenant": id, "slug": c.GetString(ContextTenantSlug)})
	})
	r.GET("/p", handlers...)
	return r
}

func TestJWTStatusCodes(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", 1)
	tenant := int64(4)
	good, err := jwtSvc.Generate(&models.User{ID: 1, Role: models.RoleOwner, TenantID: &tenant, Slug: "demo"})
	require.NoError(t, err)
	foreign, err := auth.NewJWTService("other", 1).Generate(&models.User{ID: 1, Role: models.RoleOwner})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusForbidden},
		{"wrong secret", "Bearer " + foreign, http.StatusForbidden},
		{"valid", "Bearer " + good, http.StatusOK},
	}
	r := protected(jwtSvc)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := serve(r, req)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusOK {
				assert.JSONEq(t, `{"tenant":4,"slug":"demo"}`, w.Body.String())
			}
		})
	}
}

func TestRequireTenant(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", 1)
	admin, err := jwtSvc.Generate(&models.User{ID: 1, Role: models.RoleSuperadmin})
	require.NoError(t, err)

	r := protected(jwtSvc, RequireTenant())
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)
}

func TestRequireRole(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", 1)
	tenant := int64(2)
	owner, err := jwtSvc.Generate(&models.User{ID: 1, Role: models.RoleOwner, TenantID: &tenant})
	require.NoError(t, err)
	admin, err := jwtSvc.Generate(&models.User{ID: 2, Role: models.RoleSuperadmin})
	require.NoError(t, err)

	r := protected(jwtSvc, RequireRole(string(models.RoleSuperadmin)))
	for token, want := range map[string]int{owner: http.StatusForbidden, admin: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		assert.Equal(t, want, serve(r, req).Code)
	}
}

func TestRequireOperatorKey(t *testing.T) {
	cases := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{"match", "s3cret", "s3cret", http.StatusOK},
		{"mismatch", "s3cret", "guess", http.StatusForbidden},
		{"missing header", "s3cret", "", http.StatusForbidden},
		{"unset key", "", "", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/admin", RequireOperatorKey(tc.key), func(c *gin.Context) { c.Status(http.StatusOK) })
			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			if tc.header != "" {
				req.Header.Set(HeaderOperatorKey, tc.header)
			}
			assert.Equal(t, tc.want, serve(r, req).Code)
		})
	}
}

func TestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(Logger(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	id := w.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)
}

func TestSlugValidator(t *testing.T) {
	require.NoError(t, RegisterValidators())

	type body struct {
		Slug string `json:"slug" binding:"required,slug"`
	}
	r := gin.New()
	r.POST("/s", func(c *gin.Context) {
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	for slug, want := range map[string]int{
		"la-cantina": http.StatusOK,
		"Bad Slug":   http.StatusBadRequest,
		"-lead":      http.StatusBadRequest,
	} {
		req := httptest.NewRequest(http.MethodPost, "/s", strings.NewReader(`{"slug":"`+slug+`"}`))
		req.Header.Set("Content-Type", "application/json")
		assert.Equal(t, want, serve(r, req).Code, slug)
	}
}
