// Package services contains application services for the colsync client.
// This file defines the authentication service: form login against the
// annotation service, interactive re-authentication and logout.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/colsync/internal/client/client"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: register the service and user, then authenticate.
//   - Reauthenticate: ask the credential provider until login succeeds or
//     the user cancels.
//   - Logout: drop the session cookies. No network call.
//   - Close: log out and release idle connections.
type AuthService interface {
	Login(ctx context.Context, serviceURL, user string, password []byte) error
	Reauthenticate(ctx context.Context) error
	Logout(ctx context.Context) error
	IsLoggedIn() bool
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by a client.Session.
type authService struct {
	session *client.Session
}

func NewAuthService(session *client.Session) AuthService {
	return &authService{session: session}
}

func (a *authService) Login(ctx context.Context, serviceURL, user string, password []byte) error {
	if err := a.session.Login(serviceURL, user); err != nil {
		return err
	}
	if err := a.session.Authenticate(ctx, user, password); err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	return nil
}

func (a *authService) Reauthenticate(ctx context.Context) error {
	return a.session.ReauthenticateInteractively(ctx)
}

func (a *authService) Logout(ctx context.Context) error {
	a.session.Logout()
	return nil
}

func (a *authService) IsLoggedIn() bool {
	return a.session.IsLoggedIn()
}

func (a *authService) Close(ctx context.Context) error {
	a.session.Close()
	return nil
}
