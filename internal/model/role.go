package model

const (
	RoleAdmin    = "ADMIN"
	RoleOperator = "OPERATOR"
	RoleViewer   = "VIEWER"
)

// Capability names an action gated by role.
type Capability string

const (
	CapManageUsers    Capability = "users.manage"
	CapEditMaterials  Capability = "materials.edit"
	CapCreateRequests Capability = "requests.create"
	CapDelete         Capability = "records.delete"
	CapExport         Capability = "requests.export"
)

var roleCapabilities = map[string][]Capability{
	RoleAdmin:    {CapManageUsers, CapEditMaterials, CapCreateRequests, CapDelete, CapExport},
	RoleOperator: {CapEditMaterials, CapCreateRequests, CapExport},
	RoleViewer:   {CapExport},
}

// Roles lists the assignable roles from least to most privileged.
func Roles() []string {
	return []string{RoleViewer, RoleOperator, RoleAdmin}
}

func ValidRole(role string) bool {
	_, ok := roleCapabilities[role]
	return ok
}

// Can reports whether role grants capability. Unknown roles grant nothing.
func Can(role string, capability Capability) bool {
	for _, c := range roleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// Capabilities returns the capabilities granted to role.
func Capabilities(role string) []Capability {
	caps := roleCapabilities[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}
