package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/farmops/identity-service/internal/api/dto"
	"github.com/farmops/identity-service/internal/auth"
	"github.com/farmops/identity-service/internal/domain"
	"github.com/farmops/identity-service/internal/service"
)

// AuthHandler exposes login, registration and PIN change endpoints.
type AuthHandler struct {
	verifier   *service.VerifierService
	reconciler *service.ReconcilerService
	lifecycle  *service.LifecycleService
	register   *service.RegistrationService
	tokens     *auth.TokenManager
}

// NewAuthHandler constructs handler.
func NewAuthHandler(verifier *service.VerifierService, reconciler *service.ReconcilerService, lifecycle *service.LifecycleService, register *service.RegistrationService, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{
		verifier:   verifier,
		reconciler: reconciler,
		lifecycle:  lifecycle,
		register:   register,
		tokens:     tokens,
	}
}

// StaffLogin handles POST /auth/staff/login.
func (h *AuthHandler) StaffLogin(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	staff, role, err := h.verifier.VerifyStaffPIN(c.Context(), req.Phone, req.PIN)
	if err != nil {
		return err
	}

	sess, err := h.reconciler.EnsureSession(c.Context(), req.Phone, req.PIN)
	if err != nil {
		return err
	}

	token, exp, err := h.tokens.GenerateToken(staff.ID, domain.SubjectTypeStaff, &role)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff": fiber.Map{
				"id":        staff.ID,
				"full_name": staff.FullName,
				"phone":     staff.Phone,
				"role":      role,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
			"provider_session": dto.ProviderSessionResponse{
				AccessToken:  sess.AccessToken,
				RefreshToken: sess.RefreshToken,
				ExpiresAt:    sess.ExpiresAt,
			},
		},
	})
}

// CustomerLogin handles POST /auth/customers/login.
func (h *AuthHandler) CustomerLogin(c *fiber.Ctx) error {
	var req dto.CustomerLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	customer, err := h.verifier.VerifyCustomerPIN(c.Context(), req.Phone, req.PIN)
	if err != nil {
		return err
	}

	sess, err := h.reconciler.EnsureSession(c.Context(), req.Phone, req.PIN)
	if err != nil {
		return err
	}

	token, exp, err := h.tokens.GenerateToken(customer.ID, domain.SubjectTypeCustomer, nil)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"customer": fiber.Map{
				"id":           customer.ID,
				"phone":        customer.Phone,
				"customer_ref": customer.CustomerRef,
				"approval":     customer.Approval,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
			"provider_session": dto.ProviderSessionResponse{
				AccessToken:  sess.AccessToken,
				RefreshToken: sess.RefreshToken,
				ExpiresAt:    sess.ExpiresAt,
			},
		},
	})
}

// RegisterCustomer handles POST /auth/customers/register. No session is
// issued here; a pending registration cannot log in until approved.
func (h *AuthHandler) RegisterCustomer(c *fiber.Ctx) error {
	var req dto.CustomerRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	customer, err := h.register.RegisterCustomer(c.Context(), req.Phone, req.PIN)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"customer": fiber.Map{
				"id":       customer.ID,
				"phone":    customer.Phone,
				"approval": customer.Approval,
			},
		},
	})
}

// ChangePIN handles POST /auth/pin/change.
func (h *AuthHandler) ChangePIN(c *fiber.Ctx) error {
	var req dto.PINChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var identityID string
	switch principal.SubjectType {
	case domain.SubjectTypeStaff:
		identityID = principal.Staff.ID
	case domain.SubjectTypeCustomer:
		identityID = principal.Customer.ID
	}

	if err := h.lifecycle.ChangeOwnPIN(c.Context(), principal.SubjectType, identityID, req.CurrentPIN, req.NewPIN); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"changed": true}})
}
