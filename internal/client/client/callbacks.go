package client

import "context"

// Notifier surfaces authorization problems to the user. Transport calls it
// in addition to returning the error.
type Notifier interface {
	Unauthorized(ctx context.Context, method, url string)
	Forbidden(ctx context.Context, method, url string)
}

// CredentialProvider asks the user for a password. ok is false when the
// user cancelled.
type CredentialProvider interface {
	Password(ctx context.Context, serviceURL, user string) (password []byte, ok bool, err error)
}

type nopNotifier struct{}

func (nopNotifier) Unauthorized(context.Context, string, string) {}
func (nopNotifier) Forbidden(context.Context, string, string)    {}
