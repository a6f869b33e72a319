package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
)

// FlexibleID accepts identities encoded as JSON strings or numbers.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}

// Profile describes the signed-in user.
type Profile struct {
	ID       FlexibleID `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     string     `json:"role"`
	TenantID FlexibleID `json:"tenant_id,omitempty"`
}

type loginResponse struct {
	Credentials
	User Profile `json:"user"`
}

// Login exchanges email and password for credentials.
func (c *Client) Login(ctx context.Context, email, password string) (Credentials, Profile, error) {
	body := mustJSON(map[string]string{"email": email, "password": password})
	var resp loginResponse
	if err := c.send(ctx, http.MethodPost, "/auth/login", "", body, &resp); err != nil {
		return Credentials{}, Profile{}, err
	}
	if resp.AccessToken == "" {
		return Credentials{}, Profile{}, &APIError{Method: http.MethodPost, Path: "/auth/login", Status: http.StatusUnauthorized, Message: "no access token issued"}
	}
	return resp.Credentials, resp.User, nil
}

// Logout revokes the session tokens on the backend and clears them locally.
// The local credentials are cleared even when the backend call fails.
func (c *Client) Logout(ctx context.Context, tokens TokenStore) error {
	creds := tokens.Credentials()
	var err error
	if !creds.Empty() {
		err = c.send(ctx, http.MethodPost, "/auth/logout", creds.AccessToken, mustJSON(map[string]string{
			"refresh_token": creds.RefreshToken,
		}), nil)
		if isUnauthorized(err) {
			err = nil
		}
	}
	if clearErr := tokens.ClearCredentials(ctx); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}
