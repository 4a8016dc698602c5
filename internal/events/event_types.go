package events

import (
	"time"

	"github.com/farmops/identity-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded       EventType = "login_succeeded"
	EventLoginFailed          EventType = "login_failed"
	EventAccountLocked        EventType = "account_locked"
	EventCustomerRegistered   EventType = "customer_registered"
	EventPINChanged           EventType = "pin_changed"
	EventAccountProvisioned   EventType = "account_provisioned"
	EventAccountStatusChanged EventType = "account_status_changed"
	EventAccountDeleted       EventType = "account_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type       domain.SubjectType `json:"type"`
	StaffID    *string            `json:"staff_id,omitempty"`
	CustomerID *string            `json:"customer_id,omitempty"`
}

// Event represents an identity domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Phone     string      `json:"phone,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Subject domain.SubjectType `json:"subject"`
	Role    *domain.Role       `json:"role,omitempty"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Subject  domain.SubjectType `json:"subject"`
	Reason   string             `json:"reason"`
	Failures int                `json:"failures"`
}

// AccountLockedPayload payload.
type AccountLockedPayload struct {
	UnlockAt time.Time `json:"unlock_at"`
}

// CustomerRegisteredPayload payload.
type CustomerRegisteredPayload struct {
	Approval domain.ApprovalState `json:"approval"`
	Matched  bool                 `json:"matched_business_customer"`
}

// PINChangedPayload payload.
type PINChangedPayload struct {
	ByAdmin bool `json:"by_admin"`
}

// AccountProvisionedPayload payload.
type AccountProvisionedPayload struct {
	Role domain.Role `json:"role"`
}

// AccountStatusChangedPayload payload.
type AccountStatusChangedPayload struct {
	Active bool `json:"active"`
}

// AccountDeletedPayload payload.
type AccountDeletedPayload struct {
	Subject domain.SubjectType `json:"subject"`
}
