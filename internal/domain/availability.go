package domain

// PhoneAvailability classifies a phone number across the internal credential
// store and the hosted session provider.
type PhoneAvailability string

const (
	// PhoneAvailable means no internal record and no external identity exist.
	PhoneAvailable PhoneAvailability = "available"
	// PhoneInUseActive means an active internal identity holds the number.
	PhoneInUseActive PhoneAvailability = "in_use_active"
	// PhoneInUseInactive means a deactivated internal identity holds the
	// number; it can be reactivated rather than re-provisioned.
	PhoneInUseInactive PhoneAvailability = "in_use_inactive_reactivatable"
	// PhoneOrphanedExternal means the provider still holds an identity for the
	// number but no internal record exists. Provisioning is blocked until the
	// orphan is cleaned up.
	PhoneOrphanedExternal PhoneAvailability = "orphaned_external_record"
)
