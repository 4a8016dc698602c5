package domain

import "time"

// ApprovalState represents the review state of a self-registered customer.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalRejected ApprovalState = "rejected"
)

// CustomerIdentity models a customer login account. CustomerRef links to the
// business customer record the account is scoped to; it stays nil until the
// registration is matched or approved. ProviderIdentityID references the
// hosted session provider's identity once one has been established.
type CustomerIdentity struct {
	ID                 string
	CustomerRef        *string
	Phone              string
	PINHash            *string
	Approval           ApprovalState
	ProviderIdentityID *string
	LastLoginAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// BusinessCustomer is the operational customer record owned by the billing and
// delivery subsystems. Only the fields registration matching needs live here.
type BusinessCustomer struct {
	ID        string
	Name      string
	Phone     string
	Active    bool
	CreatedAt time.Time
}
