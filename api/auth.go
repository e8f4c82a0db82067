package api

import "context"

// AuthAPI groups the authentication operations. Login and Register store the
// issued tokens on the client's token store for subsequent calls.
type AuthAPI struct {
	client *Client
}

// NewAuthAPI creates the auth API group for the given client.
func NewAuthAPI(client *Client) *AuthAPI {
	return &AuthAPI{client: client}
}

// Login authenticates with email and password and stores the session tokens.
func (a *AuthAPI) Login(ctx context.Context, creds LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	err := a.client.Post(ctx, EndpointLogin, creds, &resp, &RequestOptions{SkipAuth: true})
	if err != nil {
		return nil, err
	}
	a.storeSession(resp.AccessToken, resp.RefreshToken)
	return &resp, nil
}

// Register creates a new account. The backend logs the user in immediately,
// so the returned tokens are stored like a login.
func (a *AuthAPI) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	var resp LoginResponse
	err := a.client.Post(ctx, EndpointRegister, req, &resp, &RequestOptions{SkipAuth: true})
	if err != nil {
		return nil, err
	}
	a.storeSession(resp.AccessToken, resp.RefreshToken)
	return &resp, nil
}

// Logout ends the server-side session. Local tokens are cleared even when
// the server call fails; the call error is still returned.
func (a *AuthAPI) Logout(ctx context.Context) error {
	defer a.client.tokens.ClearTokens()
	return a.client.Post(ctx, EndpointLogout, nil, nil, nil)
}

// CurrentUser returns the authenticated user, or nil when the session is
// invalid for any reason. It never returns an error: an unreachable or
// rejecting backend means "not logged in".
func (a *AuthAPI) CurrentUser(ctx context.Context) *AuthUser {
	var user AuthUser
	if err := a.client.Get(ctx, EndpointMe, &user, nil); err != nil {
		return nil
	}
	return &user
}

// Refresh explicitly renews the access token and stores the result.
func (a *AuthAPI) Refresh(ctx context.Context) (*RefreshResponse, error) {
	var resp RefreshResponse
	err := a.client.Post(ctx, EndpointRefresh, nil, &resp, &RequestOptions{SkipAuth: true})
	if err != nil {
		return nil, err
	}
	a.storeSession(resp.AccessToken, resp.RefreshToken)
	return &resp, nil
}

// ForgotPassword requests a password reset email.
func (a *AuthAPI) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	return a.client.Post(ctx, EndpointForgotPassword, req, nil, &RequestOptions{SkipAuth: true})
}

// ResetPassword completes a reset with the emailed token.
func (a *AuthAPI) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	return a.client.Post(ctx, EndpointResetPassword, req, nil, &RequestOptions{SkipAuth: true})
}

func (a *AuthAPI) storeSession(accessToken, refreshToken string) {
	a.client.tokens.SetAccessToken(accessToken)
	if refreshToken != "" {
		a.client.tokens.SetRefreshToken(refreshToken)
	}
}
