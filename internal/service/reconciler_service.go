package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/farmops/identity-service/internal/domain"
	"github.com/farmops/identity-service/internal/session"
)

// ReconcilerService keeps the credential store and the hosted session
// provider in agreement at login time. The two stores are independently
// writable, so drift (missing provider identity, stale provider secret) is an
// expected condition repaired here, not an invariant violation.
//
// EnsureSession must only run after internal PIN verification succeeded; the
// repair steps would otherwise let a guesser rewrite provider secrets.
type ReconcilerService struct {
	provider      session.Provider
	addressDomain string
	logger        *zap.Logger
}

// NewReconcilerService builds the service.
func NewReconcilerService(provider session.Provider, addressDomain string, logger *zap.Logger) *ReconcilerService {
	return &ReconcilerService{provider: provider, addressDomain: addressDomain, logger: logger}
}

// EnsureSession establishes a provider session for the verified phone/PIN
// pair, provisioning a missing identity or repairing a drifted secret along
// the way. The repair loop is bounded: at most one provisioning attempt and
// one drift repair, each followed by a single sign-in retry. Safe to invoke
// on every login.
func (s *ReconcilerService) EnsureSession(ctx context.Context, phone, pin string) (*session.Session, error) {
	address := session.SynthesizeAddress(phone, s.addressDomain)

	sess, err := s.provider.SignIn(ctx, address, pin)
	if err == nil {
		return sess, nil
	}

	switch {
	case errors.Is(err, session.ErrIdentityNotFound):
		s.logger.Info("provider identity missing, provisioning", zap.String("address", address))
		if _, createErr := s.provider.CreateIdentity(ctx, address, pin); createErr != nil {
			return nil, s.unavailable("provision identity", createErr)
		}
	case errors.Is(err, session.ErrInvalidSecret):
		s.logger.Info("provider secret drifted, repairing", zap.String("address", address))
		identity, findErr := s.provider.FindIdentity(ctx, address)
		if findErr != nil {
			return nil, s.unavailable("locate drifted identity", findErr)
		}
		if updateErr := s.provider.UpdateSecret(ctx, identity.ID, pin); updateErr != nil {
			return nil, s.unavailable("repair drifted secret", updateErr)
		}
	default:
		return nil, s.unavailable("sign in", err)
	}

	sess, err = s.provider.SignIn(ctx, address, pin)
	if err != nil {
		return nil, s.unavailable("sign in after repair", err)
	}
	return sess, nil
}

// Address exposes the synthesized provider address for a phone number.
func (s *ReconcilerService) Address(phone string) string {
	return session.SynthesizeAddress(phone, s.addressDomain)
}

func (s *ReconcilerService) unavailable(step string, err error) error {
	s.logger.Error("session reconciliation failed", zap.String("step", step), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", domain.ErrAuthenticationUnavailable, step, err)
}
