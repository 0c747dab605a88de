package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// IdentityService updates role claims on the external identity provider so
// freshly issued tokens reflect an approval decision. Setting the same role
// twice is a no-op on the provider side, which keeps retries safe.
type IdentityService struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewIdentityService creates an identity-provider client from environment config
func NewIdentityService() *IdentityService {
	return &IdentityService{
		baseURL:   getEnvDefault("IDENTITY_API_URL", "https://api.clerk.com/v1"),
		secretKey: os.Getenv("IDENTITY_SECRET_KEY"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// UpdateUserRole sets the role claim in the user's public metadata
func (s *IdentityService) UpdateUserRole(ctx context.Context, userID, role string) error {
	if s.secretKey == "" {
		return fmt.Errorf("identity provider not configured: IDENTITY_SECRET_KEY missing")
	}

	payload := map[string]interface{}{
		"public_metadata": map[string]string{"role": role},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode role payload: %w", err)
	}

	url := fmt.Sprintf("%s/users/%s/metadata", s.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
