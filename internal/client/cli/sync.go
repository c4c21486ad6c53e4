package cli

import (
	"context"

	"github.com/dmitrijs2005/colsync/internal/client/client"
)

var errUnauthorized = client.ErrUnauthorized

func (a *App) Pull(ctx context.Context) error {
	return a.withLogin(ctx, func() error {
		r, err := a.commentService.Pull(ctx)
		if err != nil {
			return err
		}
		a.printf("Pulled: %d new, %d updated, %d unchanged, %d removed\n", r.Added, r.Updated, r.Unchanged, r.Removed)
		for _, id := range r.Stale {
			a.printf("  %s changed on the server and locally; local version kept\n", id)
		}
		for _, href := range r.Failed {
			a.printf("  %s could not be downloaded\n", href)
		}
		return nil
	})
}

func (a *App) Push(ctx context.Context) error {
	return a.withLogin(ctx, func() error {
		r, err := a.commentService.Push(ctx)
		if r != nil {
			a.printf("Pushed: %d saved, %d deleted\n", r.Pushed, r.Deleted)
			for _, f := range r.Failures {
				a.printf("  %s: %v\n", f.ID, f.Err)
			}
		}
		return err
	})
}

// Sync pulls first so that edits made elsewhere are seen before local
// changes overwrite them.
func (a *App) Sync(ctx context.Context) error {
	if err := a.Pull(ctx); err != nil {
		return err
	}
	return a.Push(ctx)
}
