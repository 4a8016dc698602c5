package dto

// ProvisionStaffRequest payload for creating a staff account.
type ProvisionStaffRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	PIN      string `json:"pin"`
	Role     string `json:"role"`
}

// ResetPINRequest payload for administrative PIN reset.
type ResetPINRequest struct {
	NewPIN string `json:"new_pin"`
}

// UpdateStatusRequest payload for deactivation/reactivation. Role and NewPIN
// are required when activating.
type UpdateStatusRequest struct {
	IsActive bool    `json:"is_active"`
	Role     *string `json:"role,omitempty"`
	NewPIN   *string `json:"new_pin,omitempty"`
}

// SetRoleRequest payload for role assignment.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// CustomerApprovalRequest payload for approving/rejecting a registration.
type CustomerApprovalRequest struct {
	Approve     bool    `json:"approve"`
	BusinessRef *string `json:"business_customer_id,omitempty"`
}
