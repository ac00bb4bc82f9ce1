package models

// Tenant is one restaurant account; the root of all scoping.
type Tenant struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	PlanActiveUntil string `json:"planActiveUntil"`
}

// TenantConfig is the public view of a tenant resolved by slug.
type TenantConfig struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Table is a physical ordering point within a tenant.
type Table struct {
	ID       int64  `json:"id"`
	Label    string `json:"label"`
	TenantID int64  `json:"tenantId"`
}
