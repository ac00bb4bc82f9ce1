package models

// Role represents a user's role on the platform.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleSuperadmin Role = "superadmin"
)

// User is a restaurant owner or a platform superadmin (no tenant).
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Role     Role   `json:"role"`
	TenantID *int64 `json:"tenantId,omitempty"`
	Slug     string `json:"slug,omitempty"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	TenantID *int64 `json:"tenantId,omitempty"`
	Slug     string `json:"slug,omitempty"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:       u.ID,
		Email:    u.Email,
		Role:     u.Role,
		TenantID: u.TenantID,
		Slug:     u.Slug,
	}
}
