package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/farmops/identity-service/internal/domain"
	"github.com/farmops/identity-service/internal/observability"
	apperrors "github.com/farmops/identity-service/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := mapIdentityError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// mapIdentityError translates the identity failure taxonomy into boundary
// errors. Business outcomes map to stable codes; anything unrecognized is an
// internal fault.
func mapIdentityError(err error) *apperrors.DomainError {
	var lockErr *domain.LockoutError
	if errors.As(err, &lockErr) {
		return apperrors.NewDomainError("ACCOUNT_LOCKED", "too many failed attempts", http.StatusLocked,
			map[string]any{"retry_after_seconds": int(lockErr.Remaining.Seconds())})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apperrors.NewDomainError("REQUEST_FAILED", fiberErr.Message, fiberErr.Code, nil)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return apperrors.NewDomainError("INVALID_CREDENTIALS", "invalid phone or pin", http.StatusUnauthorized, nil)
	case errors.Is(err, domain.ErrAccountLocked):
		return apperrors.NewDomainError("ACCOUNT_LOCKED", "too many failed attempts", http.StatusLocked, nil)
	case errors.Is(err, domain.ErrAccountInactive):
		return apperrors.NewDomainError("ACCOUNT_INACTIVE", "account is deactivated", http.StatusForbidden, nil)
	case errors.Is(err, domain.ErrPendingApproval):
		return apperrors.NewDomainError("PENDING_APPROVAL", "registration awaiting approval", http.StatusForbidden, nil)
	case errors.Is(err, domain.ErrUnauthorized):
		return apperrors.NewDomainError("UNAUTHORIZED", "insufficient privileges", http.StatusForbidden, nil)
	case errors.Is(err, domain.ErrAuthenticationUnavailable):
		return apperrors.NewDomainError("AUTHENTICATION_UNAVAILABLE", "session provider unavailable, try again", http.StatusServiceUnavailable, nil)
	case errors.Is(err, domain.ErrValidation):
		return apperrors.NewDomainError("VALIDATION_FAILED", err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, domain.ErrNotFound):
		return apperrors.NewDomainError("NOT_FOUND", "identity not found", http.StatusNotFound, nil)
	case errors.Is(err, domain.ErrPhoneTaken):
		return apperrors.NewDomainError("CONFLICT", "phone number already registered", http.StatusConflict, nil)
	}

	return apperrors.ToDomainError(err)
}
