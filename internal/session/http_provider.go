package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// HTTPConfig configures the hosted provider client.
type HTTPConfig struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

// HTTPProvider is the REST client for the hosted session provider. Password
// grant for sign-in, an admin surface for identity management.
type HTTPProvider struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPProvider creates the client.
func NewHTTPProvider(cfg HTTPConfig, logger *zap.Logger) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL:    cfg.BaseURL,
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("session_provider"),
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type providerError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"msg"`
}

// SignIn performs a password-grant token request.
func (p *HTTPProvider) SignIn(ctx context.Context, address, secret string) (*Session, error) {
	body := map[string]string{"email": address, "password": secret}
	resp, err := p.do(ctx, http.MethodPost, "/token?grant_type=password", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var tr tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return nil, fmt.Errorf("%w: decode token response: %v", ErrUnavailable, err)
		}
		return &Session{
			AccessToken:  tr.AccessToken,
			RefreshToken: tr.RefreshToken,
			ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
			Identity:     Identity{ID: tr.User.ID, Address: tr.User.Email},
		}, nil
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		// The provider answers the password grant the same way for a missing
		// identity and a wrong secret; disambiguate via the admin lookup.
		if _, lookupErr := p.FindIdentity(ctx, address); lookupErr != nil {
			if lookupErr == ErrIdentityNotFound {
				return nil, ErrIdentityNotFound
			}
			return nil, lookupErr
		}
		return nil, ErrInvalidSecret
	default:
		return nil, p.unexpected("sign-in", resp)
	}
}

// CreateIdentity provisions a pre-verified identity through the admin surface.
func (p *HTTPProvider) CreateIdentity(ctx context.Context, address, secret string) (*Identity, error) {
	body := map[string]any{"email": address, "password": secret, "email_confirm": true}
	resp, err := p.do(ctx, http.MethodPost, "/admin/users", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, p.unexpected("create identity", resp)
	}

	var ir identityResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return nil, fmt.Errorf("%w: decode identity response: %v", ErrUnavailable, err)
	}
	return &Identity{ID: ir.ID, Address: ir.Email}, nil
}

// FindIdentity looks an identity up by its synthesized address.
func (p *HTTPProvider) FindIdentity(ctx context.Context, address string) (*Identity, error) {
	path := "/admin/users?email=" + url.QueryEscape(address)
	resp, err := p.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrIdentityNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, p.unexpected("find identity", resp)
	}

	var list struct {
		Users []identityResponse `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("%w: decode identity list: %v", ErrUnavailable, err)
	}
	for _, u := range list.Users {
		if u.Email == address {
			return &Identity{ID: u.ID, Address: u.Email}, nil
		}
	}
	return nil, ErrIdentityNotFound
}

// UpdateSecret replaces the identity's password equivalent.
func (p *HTTPProvider) UpdateSecret(ctx context.Context, identityID, secret string) error {
	body := map[string]string{"password": secret}
	resp, err := p.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(identityID), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrIdentityNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return p.unexpected("update secret", resp)
	}
	return nil
}

// DeleteIdentity removes the identity. A 404 means the identity is already
// gone, which the delete flow treats as success so it stays retryable.
func (p *HTTPProvider) DeleteIdentity(ctx context.Context, identityID string) error {
	resp, err := p.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(identityID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return p.unexpected("delete identity", resp)
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal request: %v", ErrUnavailable, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.serviceKey)
	req.Header.Set("apikey", p.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("provider request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func (p *HTTPProvider) unexpected(op string, resp *http.Response) error {
	var pe providerError
	_ = json.NewDecoder(resp.Body).Decode(&pe)
	msg := pe.ErrorDescription
	if msg == "" {
		msg = pe.Message
	}
	p.logger.Error("provider returned unexpected status",
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode),
		zap.String("message", msg))
	return fmt.Errorf("%w: %s returned status %d", ErrUnavailable, op, resp.StatusCode)
}

var _ Provider = (*HTTPProvider)(nil)
