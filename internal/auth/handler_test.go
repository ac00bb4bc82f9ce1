package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/comanda-app/backend/internal/tenants"
	"github.com/comanda-app/backend/pkg/database/dbtest"
	"github.com/comanda-app/backend/pkg/response"
	"github.com/comanda-app/backend/pkg/utils"
)

func loginRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.HashCost = bcrypt.MinCost
	db := dbtest.New(t)
	svc := tenants.NewService(tenants.NewRepository(db))
	_, err := svc.Provision(context.Background(), tenants.ProvisionInput{
		Name: "Demo", OwnerEmail: "owner@demo.com", OwnerPassword: "secret-pass",
	})
	require.NoError(t, err)

	h := NewHandler(NewRepository(db), svc, NewJWTService("secret", 1), zap.NewNop())
	r := gin.New()
	r.POST("/auth/login", h.Login)
	return r
}

func TestLogin(t *testing.T) {
	r := loginRouter(t)
	cases := []struct {
		name, email, password string
		want                  int
	}{
		{"ok", "Owner@Demo.com", "secret-pass", http.StatusOK},
		{"wrong password", "owner@demo.com", "nope", http.StatusUnauthorized},
		{"unknown email", "ghost@demo.com", "secret-pass", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := `{"email":"` + tc.email + `","password":"` + tc.password + `"}`
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tc.want, w.Code)

			var env response.Body
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			if tc.want == http.StatusOK {
				assert.True(t, env.Success)
				return
			}
			assert.False(t, env.Success)
			assert.Equal(t, "invalid email or password", env.Error)
		})
	}
}
