package tenants

import (
	"context"
	"strings"

	"github.com/comanda-app/backend/pkg/apperr"
	"github.com/comanda-app/backend/pkg/utils"
)

// DefaultPlanActiveUntil is stored when a tenant is created without a plan date.
const DefaultPlanActiveUntil = "2025-12-31"

// ProvisionInput describes a new tenant and its owner account.
type ProvisionInput struct {
	Name            string
	Slug            string
	PlanActiveUntil string
	OwnerEmail      string
	OwnerPassword   string
}

// Credentials are the owner's login details returned once at creation.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Provisioned is the result of Provision.
type Provisioned struct {
	TenantID    int64       `json:"id"`
	Slug        string      `json:"slug"`
	Credentials Credentials `json:"credentials"`
}

// Service provisions and maintains tenants.
type Service struct {
	repo *Repository
}

// NewService creates a tenants service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Provision creates a tenant with a default category and an owner user.
// A missing slug is derived from the name; a missing owner email defaults to
// admin@<slug>.com and a missing password is generated.
func (s *Service) Provision(ctx context.Context, in ProvisionInput) (*Provisioned, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.BadRequest("name is required")
	}
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if slug == "" {
		slug = utils.Slugify(name)
	}
	if !utils.IsSlug(slug) {
		return nil, apperr.BadRequest("slug must be 2-64 chars, lowercase letters, numbers, hyphens only")
	}
	plan := in.PlanActiveUntil
	if plan == "" {
		plan = DefaultPlanActiveUntil
	}
	email := strings.ToLower(strings.TrimSpace(in.OwnerEmail))
	if email == "" {
		email = "admin@" + slug + ".com"
	}
	password := in.OwnerPassword
	if password == "" {
		password = utils.GeneratePassword()
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	id, err := s.repo.Create(ctx, CreateParams{
		Name:            name,
		Slug:            slug,
		PlanActiveUntil: plan,
		OwnerEmail:      email,
		PasswordHash:    hash,
	})
	if err != nil {
		return nil, err
	}
	return &Provisioned{
		TenantID:    id,
		Slug:        slug,
		Credentials: Credentials{Email: email, Password: password},
	}, nil
}

// RotateCredentials replaces the owner's email and/or password.
func (s *Service) RotateCredentials(ctx context.Context, tenantID int64, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" && password == "" {
		return apperr.BadRequest("email or password required")
	}
	var hash string
	if password != "" {
		var err error
		if hash, err = utils.HashPassword(password); err != nil {
			return apperr.Internal("hash password", err)
		}
	}
	return s.repo.UpdateOwnerCredentials(ctx, tenantID, email, hash)
}
