// Package auth implements the session lifecycle, registration and password
// recovery endpoints of the DriveDocs API.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/DriveDocs-Network/data_layer/client"
)

// Service shapes requests for the /auth and /register endpoints.
type Service struct {
	client *client.Client
}

// NewService creates an auth service over the given API client.
func NewService(c *client.Client) *Service {
	return &Service{client: c}
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up payload.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with email and password. On success the returned
// session is saved to the client's session store.
func (s *Service) Login(ctx context.Context, creds Credentials) (*client.Session, error) {
	body, err := s.client.Do(ctx, http.MethodPost, "/auth/login", creds)
	if err != nil {
		return nil, err
	}

	var sess client.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if err := s.client.Sessions().Save(ctx, sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Logout invalidates the refresh token server-side and destroys the local
// session. The local session is cleared even when the server call fails;
// a dead refresh token is not worth keeping.
func (s *Service) Logout(ctx context.Context) error {
	sess := s.client.Sessions().Session()
	if sess == nil {
		return client.NoSessionError()
	}

	_, reqErr := s.client.Do(ctx, http.MethodPost, "/auth/logout", map[string]string{
		"refresh_token": sess.RefreshToken,
	})
	if err := s.client.Sessions().Clear(ctx); err != nil {
		return err
	}
	return reqErr
}

// Register creates a new account. The account must be activated by email
// before it can log in.
func (s *Service) Register(ctx context.Context, reg Registration) error {
	_, err := s.client.Do(ctx, http.MethodPost, "/register", reg)
	return err
}

// ResendActivationEmail requests a fresh activation email.
func (s *Service) ResendActivationEmail(ctx context.Context, email string) error {
	_, err := s.client.Do(ctx, http.MethodPost, "/register/resend", map[string]string{
		"email": email,
	})
	return err
}

// Activate confirms a registration using the emailed token.
func (s *Service) Activate(ctx context.Context, token string) error {
	_, err := s.client.Do(ctx, http.MethodPost, "/register/activate", map[string]string{
		"token": token,
	})
	return err
}

// ResetPassword starts the password recovery flow for the given email.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	_, err := s.client.Do(ctx, http.MethodPost, "/auth/reset-password", map[string]string{
		"email": email,
	})
	return err
}

// ResendResetEmail requests a fresh password recovery email.
func (s *Service) ResendResetEmail(ctx context.Context, email string) error {
	_, err := s.client.Do(ctx, http.MethodPost, "/auth/resend-reset-email", map[string]string{
		"email": email,
	})
	return err
}

// ChangePassword completes password recovery using the emailed token.
func (s *Service) ChangePassword(ctx context.Context, token, password string) error {
	_, err := s.client.Do(ctx, http.MethodPost, "/auth/change-password", map[string]string{
		"token":    token,
		"password": password,
	})
	return err
}
