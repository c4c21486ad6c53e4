package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/colsync/internal/client/client"
	"github.com/dmitrijs2005/colsync/internal/client/config"
	"github.com/dmitrijs2005/colsync/internal/client/reconcile"
	"github.com/dmitrijs2005/colsync/internal/client/services"
	"github.com/dmitrijs2005/colsync/internal/filex"
	"github.com/dmitrijs2005/colsync/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config         *config.Config
	session        *client.Session
	authService    services.AuthService
	commentService services.CommentService
	log            logging.Logger
	reader         *bufio.Reader
	out            io.Writer
	closers        []func() error
}

// NewApp locks and opens the local store and prepares a session on the
// configured service. It does not log in.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	a := &App{
		config: c,
		log:    logging.NewTextLogger(os.Stderr, c.LogLevel),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	if _, err := filex.EnsureParentDir(c.DBPath); err != nil {
		return nil, err
	}
	lock, err := filex.LockStore(c.DBPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, lock.Unlock)

	repos, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	a.closers = append(a.closers, repos.Close)

	a.session = client.NewSession(
		client.WithLogger(a.log),
		client.WithNotifier(a),
		client.WithCredentialProvider(a),
		client.WithRateLimit(c.RequestRate),
	)
	if err := a.session.Login(c.ServiceURL, c.User); err != nil {
		_ = a.Close()
		return nil, err
	}

	opts := []reconcile.Option{reconcile.WithLogger(a.log)}
	if c.CachedRepresentation {
		opts = append(opts, reconcile.WithCachedRepresentation(reconcile.FileSnapshot(c.SnapshotFile)))
	}
	engine := reconcile.NewEngine(a.session, opts...)

	a.authService = services.NewAuthService(a.session)
	a.commentService = services.NewCommentService(engine, repos.Envelopes, c.Source, a.log)
	return a, nil
}

// Run starts the REPL and blocks until the user leaves or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	printlnFn("Welcome to colsync (type 'help' for commands)")
	printlnFn("Transcription:", a.config.Source)
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

// Close logs out and releases the store, in reverse order of acquisition.
func (a *App) Close() error {
	if a.authService != nil {
		_ = a.authService.Close(context.Background())
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.authService.IsLoggedIn()
}

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return "(offline)"
	}
	return fmt.Sprintf("(%s)", a.session.User())
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
