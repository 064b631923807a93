package auth

import "strings"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleSales   Role = "sales"
)

// TeamRoles are the roles assignable through the team invite flow. Admin
// accounts are created only by bootstrap.
var TeamRoles = []Role{RoleManager, RoleSales}

func IsTeamRole(role string) bool {
	switch NormalizeRole(role) {
	case RoleManager, RoleSales:
		return true
	}
	return false
}

func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleManager):
		return RoleManager
	case string(RoleSales):
		return RoleSales
	default:
		return ""
	}
}

// EffectiveRole returns the role a user presents in issued credentials.
// Superusers always present as admin regardless of the stored role.
func EffectiveRole(role string, isSuperuser bool) Role {
	if isSuperuser {
		return RoleAdmin
	}
	if normalized := NormalizeRole(role); normalized != "" {
		return normalized
	}
	return RoleSales
}

func IsAdmin(role string) bool {
	return NormalizeRole(role) == RoleAdmin
}
