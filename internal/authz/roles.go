package authz

const (
	RoleSales      = 10
	RoleOperations = 20
	RoleAudit      = 30
	RoleManagement = 40
	RoleAdmin      = 50
)

var roleNames = map[int]string{
	RoleSales:      "sales",
	RoleOperations: "operations",
	RoleAudit:      "audit",
	RoleManagement: "management",
	RoleAdmin:      "admin",
}

func IsElevated(roleID int) bool {
	return roleID == RoleOperations || roleID == RoleManagement || roleID == RoleAdmin
}

// IsReadOnly reports roles that may read the pipeline but never change it.
func IsReadOnly(roleID int) bool {
	return roleID == RoleAudit
}

func IsKnown(roleID int) bool {
	_, ok := roleNames[roleID]
	return ok
}

func Name(roleID int) string {
	if n, ok := roleNames[roleID]; ok {
		return n
	}
	return "unknown"
}
