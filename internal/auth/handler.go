package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comanda-app/backend/internal/models"
	"github.com/comanda-app/backend/internal/tenants"
	"github.com/comanda-app/backend/pkg/apperr"
	"github.com/comanda-app/backend/pkg/response"
	"github.com/comanda-app/backend/pkg/utils"
)

// Provisioner creates a tenant together with its owner account.
type Provisioner interface {
	Provision(ctx context.Context, in tenants.ProvisionInput) (*tenants.Provisioned, error)
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name          string `json:"name" binding:"required"`
	Slug          string `json:"slug" binding:"omitempty,slug"`
	OwnerEmail    string `json:"ownerEmail" binding:"required,email"`
	OwnerPassword string `json:"ownerPassword" binding:"required,min=6"`
}

// RegisterResponse is returned by POST /auth/register.
type RegisterResponse struct {
	TenantID int64  `json:"tenantId"`
	Slug     string `json:"slug"`
	Email    string `json:"email"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo        *Repository
	provisioner Provisioner
	jwt         *JWTService
	logger      *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, provisioner Provisioner, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, provisioner: provisioner, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register. Creates a tenant and its owner.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	out, err := h.provisioner.Provision(c.Request.Context(), tenants.ProvisionInput{
		Name:          req.Name,
		Slug:          req.Slug,
		OwnerEmail:    req.OwnerEmail,
		OwnerPassword: req.OwnerPassword,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.logger.Info("tenant registered", zap.Int64("tenant_id", out.TenantID), zap.String("slug", out.Slug))
	response.Created(c, RegisterResponse{TenantID: out.TenantID, Slug: out.Slug, Email: out.Credentials.Email})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	token, err := h.jwt.Generate(user)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// authenticate resolves the user for email and checks the password. An
// unknown email and a wrong password fail the same way.
func (h *Handler) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := h.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if IsNotFound(err) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, apperr.Internal("login lookup", err)
	}
	if !utils.CheckPassword(password, user.Password) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	return user, nil
}
