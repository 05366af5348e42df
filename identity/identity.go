// Package identity delegates authentication to the external OIDC provider.
// The backend never issues or validates tokens itself; it only resolves a
// bearer token to the provider's subject claim.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrInvalidToken = errors.New("invalid or expired access token")

// Provider resolves a bearer token to the identity provider's subject
type Provider interface {
	Subject(ctx context.Context, accessToken string) (string, error)
}

// UserInfoProvider resolves tokens through the OIDC userinfo endpoint
type UserInfoProvider struct {
	endpoint string
	client   *http.Client
}

// NewUserInfoProvider creates a provider for the given userinfo endpoint
func NewUserInfoProvider(endpoint string) *UserInfoProvider {
	return &UserInfoProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Subject calls the userinfo endpoint with the token and returns the sub
// claim. A 401/403 from the provider maps to ErrInvalidToken.
func (p *UserInfoProvider) Subject(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return "", fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	if claims.Sub == "" {
		return "", ErrInvalidToken
	}

	return claims.Sub, nil
}

// StaticProvider treats the token itself as the subject. Development only.
type StaticProvider struct{}

// Subject returns the token unchanged
func (StaticProvider) Subject(ctx context.Context, accessToken string) (string, error) {
	if accessToken == "" {
		return "", ErrInvalidToken
	}
	return accessToken, nil
}
