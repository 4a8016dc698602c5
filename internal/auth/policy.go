package auth

import (
	"github.com/farmops/identity-service/internal/domain"
)

// Resource identifies a protected operational resource class. Every data
// access in the platform names one of these; there is no resource reachable
// without an explicit allow rule.
type Resource string

const (
	ResourceCatalog       Resource = "catalog"
	ResourceBilling       Resource = "billing"
	ResourceInvoices      Resource = "invoices"
	ResourcePayroll       Resource = "payroll"
	ResourceDeliveries    Resource = "deliveries"
	ResourceRoutes        Resource = "routes"
	ResourceLivestock     Resource = "livestock"
	ResourceProduction    Resource = "production"
	ResourceHealth        Resource = "health"
	ResourceBreeding      Resource = "breeding"
	ResourceCustomers     Resource = "customers"
	ResourceStaffAccounts Resource = "staff_accounts"
	ResourceReports       Resource = "reports"
)

// Operation is the access mode requested against a resource.
type Operation string

const (
	OpRead  Operation = "read"
	OpWrite Operation = "write"
)

// operationalResources are the resources the unrestricted tiers may touch.
var operationalResources = []Resource{
	ResourceCatalog, ResourceBilling, ResourceInvoices, ResourcePayroll,
	ResourceDeliveries, ResourceRoutes, ResourceLivestock, ResourceProduction,
	ResourceHealth, ResourceBreeding, ResourceCustomers, ResourceStaffAccounts,
	ResourceReports,
}

// auditableResources are the financial/operational resources the auditor tier
// may read.
var auditableResources = []Resource{
	ResourceCatalog, ResourceBilling, ResourceInvoices, ResourcePayroll,
	ResourceDeliveries, ResourceLivestock, ResourceProduction, ResourceReports,
}

// domainResources maps each domain-specific role to the resources it fully owns.
var domainResources = map[domain.Role][]Resource{
	domain.RoleAccountant:    {ResourceBilling, ResourceInvoices, ResourcePayroll},
	domain.RoleDeliveryStaff: {ResourceDeliveries, ResourceRoutes},
	domain.RoleFarmWorker:    {ResourceLivestock, ResourceProduction},
	domain.RoleVetStaff:      {ResourceHealth, ResourceBreeding},
}

type policyKey struct {
	role     domain.Role
	resource Resource
	op       Operation
}

// Gate evaluates role/resource/operation access against a fixed policy table.
// Policy is default-deny: anything not inserted at construction is refused.
type Gate struct {
	allow map[policyKey]struct{}
}

// NewGate builds the policy table.
func NewGate() *Gate {
	g := &Gate{allow: make(map[policyKey]struct{})}

	for _, res := range operationalResources {
		g.permit(domain.RoleSuperAdmin, res, OpRead)
		g.permit(domain.RoleSuperAdmin, res, OpWrite)
		g.permit(domain.RoleManager, res, OpRead)
		g.permit(domain.RoleManager, res, OpWrite)
	}

	for _, res := range auditableResources {
		g.permit(domain.RoleAuditor, res, OpRead)
	}

	for role, resources := range domainResources {
		for _, res := range resources {
			g.permit(role, res, OpRead)
			g.permit(role, res, OpWrite)
		}
	}

	return g
}

func (g *Gate) permit(role domain.Role, res Resource, op Operation) {
	g.allow[policyKey{role: role, resource: res, op: op}] = struct{}{}
}

// CanAccess reports whether the role may perform op on the resource.
func (g *Gate) CanAccess(role domain.Role, resource Resource, op Operation) bool {
	_, ok := g.allow[policyKey{role: role, resource: resource, op: op}]
	return ok
}

// CanAccessCustomerRecord scopes a customer principal to records referencing
// its own linked business-customer id. A customer with no linked record (still
// pending) can access nothing.
func (g *Gate) CanAccessCustomerRecord(principal *domain.CustomerIdentity, recordCustomerRef string) bool {
	if principal == nil || principal.CustomerRef == nil || recordCustomerRef == "" {
		return false
	}
	return *principal.CustomerRef == recordCustomerRef
}
