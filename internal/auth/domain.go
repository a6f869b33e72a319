package auth

import (
	"context"

	"github.com/odyssey-erp/backoffice/internal/apiclient"
)

// Backend is the authentication surface of the REST service.
type Backend interface {
	Login(ctx context.Context, email, password string) (apiclient.Credentials, apiclient.Profile, error)
	Logout(ctx context.Context, tokens apiclient.TokenStore) error
}
