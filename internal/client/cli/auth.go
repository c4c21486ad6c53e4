package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/colsync/internal/shared"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login authenticates with the configured service. The user name comes
// from the argument, the configuration or a prompt, in that order. The
// password is wiped before returning.
func (a *App) Login(ctx context.Context, args []string) error {
	user := a.config.User
	if len(args) > 0 {
		user = args[0]
	}
	if user == "" {
		var err error
		if user, err = getSimpleText(a.reader, "Enter user name", a.out); err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)

	if err := a.authService.Login(ctx, a.config.ServiceURL, user, password); err != nil {
		return err
	}

	a.config.User = user
	a.printf("Logged in as %s\n", user)
	return nil
}

// Logout forgets the session. Local comments stay in the store.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.printf("Logged out\n")
	return nil
}

// Password asks for the password again after the service rejected the
// session. An empty answer cancels.
func (a *App) Password(ctx context.Context, serviceURL, user string) ([]byte, bool, error) {
	a.printf("Login to %s as %s (empty password cancels)\n", serviceURL, user)
	pw, err := getPassword(a.out)
	if err != nil {
		return nil, false, err
	}
	if len(pw) == 0 {
		return nil, false, nil
	}
	return pw, true, nil
}

// Unauthorized tells the user that the session expired.
func (a *App) Unauthorized(ctx context.Context, method, url string) {
	a.printf("The service asked for a new login (%s %s)\n", method, url)
}

// Forbidden tells the user that a comment belongs to someone else.
func (a *App) Forbidden(ctx context.Context, method, url string) {
	a.printf("Not allowed: the comment belongs to another user (%s %s)\n", method, url)
}

// withLogin runs op and, when the session expired on the way, asks for the
// password once and runs op again.
func (a *App) withLogin(ctx context.Context, op func() error) error {
	err := op()
	if !errors.Is(err, errUnauthorized) {
		return err
	}
	if rerr := a.authService.Reauthenticate(ctx); rerr != nil {
		return rerr
	}
	return op()
}
