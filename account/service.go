package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/DriveDocs-Network/data_layer/client"
)

// Service shapes requests for the /account endpoints.
type Service struct {
	client *client.Client
}

// NewService creates an account service over the given API client.
func NewService(c *client.Client) *Service {
	return &Service{client: c}
}

// Fetch retrieves the profile of the authenticated user.
func (s *Service) Fetch(ctx context.Context) (*Account, error) {
	body, err := s.client.DoAuthenticated(ctx, http.MethodGet, "/account", nil)
	if err != nil {
		return nil, err
	}

	var acc Account
	if err := json.Unmarshal(body, &acc); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &acc, nil
}

// ChangeAvatar uploads a new avatar image as multipart form data.
func (s *Service) ChangeAvatar(ctx context.Context, filename string, file io.Reader) (*AvatarResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("avatar", filename)
	if err != nil {
		return nil, fmt.Errorf("build avatar form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read avatar file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish avatar form: %w", err)
	}

	body, err := s.client.DoAuthenticatedForm(ctx, http.MethodPost, "/account/avatar", buf.Bytes(), w.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var res AvatarResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode avatar response: %w", err)
	}
	return &res, nil
}

// RemoveAvatar deletes the current avatar.
func (s *Service) RemoveAvatar(ctx context.Context) (*AvatarResult, error) {
	body, err := s.client.DoAuthenticated(ctx, http.MethodDelete, "/account/avatar", nil)
	if err != nil {
		return nil, err
	}

	var res AvatarResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode avatar response: %w", err)
	}
	return &res, nil
}

// UpdateName changes the display name.
func (s *Service) UpdateName(ctx context.Context, name string) (*Account, error) {
	body, err := s.client.DoAuthenticated(ctx, http.MethodPatch, "/account", map[string]string{
		"name": name,
	})
	if err != nil {
		return nil, err
	}

	var acc Account
	if err := json.Unmarshal(body, &acc); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &acc, nil
}

// ChangePassword changes the password of a logged-in user.
func (s *Service) ChangePassword(ctx context.Context, change PasswordChange) (*Account, error) {
	body, err := s.client.DoAuthenticated(ctx, http.MethodPost, "/account/password", change)
	if err != nil {
		return nil, err
	}

	var acc Account
	if err := json.Unmarshal(body, &acc); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &acc, nil
}

// Delete permanently removes the account.
func (s *Service) Delete(ctx context.Context) error {
	_, err := s.client.DoAuthenticated(ctx, http.MethodDelete, "/account", nil)
	return err
}
