package domain

// SubjectType differentiates staff and customer principals.
type SubjectType string

const (
	SubjectTypeStaff    SubjectType = "STAFF"
	SubjectTypeCustomer SubjectType = "CUSTOMER"
)
