package domain

import "time"

// Role enumerates staff authorization tiers. The set is part of the external
// contract; identifiers are stable.
type Role string

const (
	RoleSuperAdmin    Role = "super_admin"
	RoleManager       Role = "manager"
	RoleAccountant    Role = "accountant"
	RoleDeliveryStaff Role = "delivery_staff"
	RoleFarmWorker    Role = "farm_worker"
	RoleVetStaff      Role = "vet_staff"
	RoleAuditor       Role = "auditor"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleManager, RoleAccountant, RoleDeliveryStaff, RoleFarmWorker, RoleVetStaff, RoleAuditor:
		return true
	}
	return false
}

// StaffIdentity models an internal operator account. The Role field mirrors the
// value held in role_assignments at provisioning time; authorization decisions
// read the assignment table, never this row.
type StaffIdentity struct {
	ID        string
	FullName  string
	Phone     string
	PINHash   *string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
