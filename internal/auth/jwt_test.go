package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comanda-app/backend/internal/models"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", 24)
	tenantID := int64(7)
	token, err := svc.Generate(&models.User{ID: 3, Role: models.RoleOwner, TenantID: &tenantID, Slug: "demo"})
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
	assert.Equal(t, "owner", claims.Role)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, int64(7), *claims.TenantID)
	assert.Equal(t, "demo", claims.Slug)
	assert.Equal(t, 24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("one", 24).Generate(&models.User{ID: 1, Role: models.RoleSuperadmin})
	require.NoError(t, err)

	_, err = NewJWTService("two", 24).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewJWTService("secret", 24)
	issued := time.Now().Add(-48 * time.Hour)
	svc.now = func() time.Time { return issued }
	token, err := svc.Generate(&models.User{ID: 1, Role: models.RoleOwner})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewJWTService("secret", 24).Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSuperadminHasNoTenant(t *testing.T) {
	svc := NewJWTService("secret", 24)
	token, err := svc.Generate(&models.User{ID: 1, Role: models.RoleSuperadmin})
	require.NoError(t, err)
	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Nil(t, claims.TenantID)
}
