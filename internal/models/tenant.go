package models

// Tenant is the caller context every service operation runs under.
// ID scopes all rows, UserID is the acting user.
type Tenant struct {
	ID     int64 `json:"tenant_id"`
	UserID int64 `json:"user_id"`
	RoleID int   `json:"role_id"`
}
