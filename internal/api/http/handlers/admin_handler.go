package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/farmops/identity-service/internal/api/dto"
	"github.com/farmops/identity-service/internal/auth"
	"github.com/farmops/identity-service/internal/domain"
	"github.com/farmops/identity-service/internal/service"
)

// AdminHandler exposes the administrative account lifecycle endpoints.
type AdminHandler struct {
	lifecycle *service.LifecycleService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(lifecycle *service.LifecycleService) *AdminHandler {
	return &AdminHandler{lifecycle: lifecycle}
}

func actingStaffID(c *fiber.Ctx) (string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return "", fiber.NewError(http.StatusForbidden, "staff access required")
	}
	return principal.Staff.ID, nil
}

// ProvisionStaff handles POST /admin/accounts.
func (h *AdminHandler) ProvisionStaff(c *fiber.Ctx) error {
	var req dto.ProvisionStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	actorID, err := actingStaffID(c)
	if err != nil {
		return err
	}

	staff, err := h.lifecycle.ProvisionStaff(c.Context(), actorID, service.ProvisionStaffInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		PIN:      req.PIN,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"staff": fiber.Map{
				"id":        staff.ID,
				"full_name": staff.FullName,
				"phone":     staff.Phone,
				"role":      staff.Role,
				"active":    staff.Active,
			},
		},
	})
}

// ResetPIN handles POST /admin/accounts/:id/pin.
func (h *AdminHandler) ResetPIN(c *fiber.Ctx) error {
	var req dto.ResetPINRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	actorID, err := actingStaffID(c)
	if err != nil {
		return err
	}

	if err := h.lifecycle.AdminResetPIN(c.Context(), actorID, c.Params("id"), req.NewPIN); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"reset": true}})
}

// UpdateStatus handles POST /admin/accounts/:id/status.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	actorID, err := actingStaffID(c)
	if err != nil {
		return err
	}

	var role *domain.Role
	if req.Role != nil {
		r := domain.Role(*req.Role)
		role = &r
	}

	if err := h.lifecycle.AdminUpdateStatus(c.Context(), actorID, c.Params("id"), req.IsActive, role, req.NewPIN); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"is_active": req.IsActive}})
}

// SetRole handles POST /admin/accounts/:id/role.
func (h *AdminHandler) SetRole(c *fiber.Ctx) error {
	var req dto.SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	actorID, err := actingStaffID(c)
	if err != nil {
		return err
	}

	if err := h.lifecycle.SetRole(c.Context(), actorID, c.Params("id"), domain.Role(req.Role)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"role": req.Role}})
}

// PermanentDelete handles DELETE /admin/accounts/:id.
func (h *AdminHandler) PermanentDelete(c *fiber.Ctx) error {
	actorID, err := actingStaffID(c)
	if err != nil {
		return err
	}

	if err := h.lifecycle.PermanentDelete(c.Context(), actorID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// PhoneAvailability handles GET /admin/phones/:phone/availability.
func (h *AdminHandler) PhoneAvailability(c *fiber.Ctx) error {
	availability, err := h.lifecycle.CheckPhoneAvailability(c.Context(), c.Params("phone"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"availability": availability}})
}

// CustomerApproval handles POST /admin/customers/:id/approval.
func (h *AdminHandler) CustomerApproval(c *fiber.Ctx) error {
	var req dto.CustomerApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	actorID, err := actingStaffID(c)
	if err != nil {
		return err
	}

	if req.Approve {
		err = h.lifecycle.ApproveCustomer(c.Context(), actorID, c.Params("id"), req.BusinessRef)
	} else {
		err = h.lifecycle.RejectCustomer(c.Context(), actorID, c.Params("id"))
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"approved": req.Approve}})
}
