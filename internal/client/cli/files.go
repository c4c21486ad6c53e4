package cli

import "context"

func (a *App) Import(ctx context.Context, args []string) error {
	path, err := oneArg(args, "import <file>")
	if err != nil {
		return err
	}
	n, err := a.commentService.Import(ctx, path)
	if err != nil {
		return err
	}
	a.printf("Imported %d comments from %s\n", n, path)
	return nil
}

func (a *App) Export(ctx context.Context, args []string) error {
	path, err := oneArg(args, "export <file>")
	if err != nil {
		return err
	}
	n, err := a.commentService.Export(ctx, path)
	if err != nil {
		return err
	}
	a.printf("Exported %d comments to %s\n", n, path)
	return nil
}
