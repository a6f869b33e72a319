package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/odyssey-erp/backoffice/internal/apiclient"
	"github.com/odyssey-erp/backoffice/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	backend Backend
}

// NewService constructs a new Service.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// Authenticate validates email/password credentials against the backend.
func (s *Service) Authenticate(ctx context.Context, email, password string) (shared.Profile, apiclient.Credentials, error) {
	creds, profile, err := s.backend.Login(ctx, email, password)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Status {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
				return shared.Profile{}, apiclient.Credentials{}, shared.ErrInvalidCredentials
			}
		}
		return shared.Profile{}, apiclient.Credentials{}, err
	}
	return shared.Profile{
		ID:       string(profile.ID),
		Name:     profile.Name,
		Email:    profile.Email,
		Role:     profile.Role,
		TenantID: string(profile.TenantID),
	}, creds, nil
}

// SignOut revokes the session tokens on the backend.
func (s *Service) SignOut(ctx context.Context, sess *shared.Session) error {
	return s.backend.Logout(ctx, sess)
}
