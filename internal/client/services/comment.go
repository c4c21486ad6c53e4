package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/colsync/internal/client/client"
	"github.com/dmitrijs2005/colsync/internal/client/reconcile"
	"github.com/dmitrijs2005/colsync/internal/client/repositories/envelopes"
	"github.com/dmitrijs2005/colsync/internal/comments"
	"github.com/dmitrijs2005/colsync/internal/logging"
)

// Syncer is the part of reconcile.Engine the comment service drives.
type Syncer interface {
	Fetch(ctx context.Context, sourceURN string, local []*comments.Envelope) (*reconcile.FetchResult, error)
	Push(ctx context.Context, env *comments.Envelope) error
	Delete(ctx context.Context, env *comments.Envelope) error
}

type CommentService interface {
	Add(ctx context.Context, env *comments.Envelope) error
	Edit(ctx context.Context, id string, fn func(*comments.Envelope) error) (*comments.Envelope, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*comments.Envelope, error)
	Get(ctx context.Context, id string) (*comments.Envelope, error)
	Pull(ctx context.Context) (*PullReport, error)
	Push(ctx context.Context) (*PushReport, error)
	Import(ctx context.Context, path string) (int, error)
	Export(ctx context.Context, path string) (int, error)
}

// PullReport summarizes a Pull.
type PullReport struct {
	Added     int
	Updated   int
	Unchanged int
	Removed   int
	// Stale lists local comments with unpushed edits that differ from a
	// newer server copy. They are kept as they are.
	Stale []string
	// Failed lists server hrefs that could not be downloaded.
	Failed []string
}

// Failure is one comment the server did not accept.
type Failure struct {
	ID  string
	Err error
}

type PushReport struct {
	Pushed   int
	Deleted  int
	Failures []Failure
}

type commentService struct {
	sync   Syncer
	repo   envelopes.Repository
	source string
	log    logging.Logger
}

// NewCommentService binds the local store and the engine to one
// transcription source.
func NewCommentService(sync Syncer, repo envelopes.Repository, source string, log logging.Logger) CommentService {
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return &commentService{sync: sync, repo: repo, source: source, log: log.With("source", source)}
}

func (s *commentService) Add(ctx context.Context, env *comments.Envelope) error {
	if env.URIBase == "" || env.URIBase == comments.DefaultURIBase {
		env.URIBase = s.source
	}
	env.Touch()

	if err := s.repo.Save(ctx, env); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}
	return nil
}

// Edit applies fn to a stored comment and marks it for saving. Comments
// owned by someone else cannot be edited.
func (s *commentService) Edit(ctx context.Context, id string, fn func(*comments.Envelope) error) (*comments.Envelope, error) {
	env, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving comment: %w", err)
	}
	if env.ReadOnly {
		return nil, fmt.Errorf("%w: %s", reconcile.ErrReadOnly, id)
	}

	if err := fn(env); err != nil {
		return nil, err
	}
	env.Touch()

	if err := s.repo.Save(ctx, env); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	return env, nil
}

// Delete removes a comment that never reached the server and leaves a
// tombstone for Push otherwise.
func (s *commentService) Delete(ctx context.Context, id string) error {
	env, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error retrieving comment: %w", err)
	}
	if env.ReadOnly {
		return fmt.Errorf("%w: %s", reconcile.ErrReadOnly, id)
	}

	if env.MessageURL == "" {
		err = s.repo.Purge(ctx, id)
	} else {
		err = s.repo.MarkDeleted(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("error deleting comment: %w", err)
	}
	return nil
}

func (s *commentService) List(ctx context.Context) ([]*comments.Envelope, error) {
	list, err := s.repo.GetBySource(ctx, s.source)
	if err != nil {
		return nil, fmt.Errorf("error: %w", err)
	}
	return list, nil
}

func (s *commentService) Get(ctx context.Context, id string) (*comments.Envelope, error) {
	env, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving comment: %w", err)
	}
	return env, nil
}

// Pull merges the server's comments into the store. A failed listing
// leaves the store untouched.
func (s *commentService) Pull(ctx context.Context) (*PullReport, error) {
	local, err := s.repo.GetBySource(ctx, s.source)
	if err != nil {
		return nil, fmt.Errorf("error retrieving comments: %w", err)
	}
	tombstones, err := s.repo.GetDeleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving comments: %w", err)
	}

	res, err := s.sync.Fetch(ctx, s.source, local)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*comments.Envelope, len(local))
	for _, l := range local {
		byID[l.MessageID] = l
	}
	deleted := make(map[string]bool, len(tombstones))
	for _, d := range tombstones {
		deleted[d.MessageID] = true
	}

	report := &PullReport{Unchanged: len(res.Unchanged), Failed: res.Failed}
	// onServer holds hrefs and message ids; a comment recreated on the
	// server keeps its id under a new href.
	onServer := make(map[string]bool)
	for _, href := range res.Failed {
		onServer[href] = true
	}
	for _, u := range res.Unchanged {
		onServer[u.MessageURL] = true
		onServer[u.MessageID] = true
	}

	var toSave []*comments.Envelope
	for _, f := range res.Fetched {
		onServer[f.MessageURL] = true
		onServer[f.MessageID] = true
		if deleted[f.MessageID] {
			continue
		}

		l, ok := byID[f.MessageID]
		switch {
		case !ok:
			f.ToBeSavedToFile = true
			toSave = append(toSave, f)
			report.Added++
		case !l.ToBeSavedToServer:
			f.ToBeSavedToFile = true
			toSave = append(toSave, f)
			report.Updated++
		case l.InterestingValueEqual(f):
			l.SetServerModifiableFields(f)
			l.ToBeSavedToServer = false
			toSave = append(toSave, l)
			report.Updated++
		default:
			s.log.Warn(ctx, "local edit conflicts with a newer server copy", "id", l.MessageID)
			report.Stale = append(report.Stale, l.MessageID)
		}
	}

	if err := s.repo.SaveAll(ctx, toSave); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}

	for _, l := range local {
		if l.MessageURL == "" || l.ToBeSavedToServer || onServer[l.MessageURL] || onServer[l.MessageID] {
			continue
		}
		if err := s.repo.Purge(ctx, l.MessageID); err != nil {
			return nil, fmt.Errorf("error deleting comment: %w", err)
		}
		s.log.Info(ctx, "removed comment deleted on server", "id", l.MessageID)
		report.Removed++
	}

	return report, nil
}

// Push sends pending comments and tombstones to the server. Per comment
// failures are collected in the report; an expired login aborts the run.
func (s *commentService) Push(ctx context.Context) (*PushReport, error) {
	pending, err := s.repo.GetPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving comments: %w", err)
	}

	report := &PushReport{}
	for _, env := range pending {
		pushErr := s.sync.Push(ctx, env)

		// server fields may have changed even when the push failed
		if err := s.repo.Save(ctx, env); err != nil {
			return report, fmt.Errorf("saving error: %w", err)
		}
		if pushErr != nil {
			report.Failures = append(report.Failures, Failure{ID: env.MessageID, Err: pushErr})
			if errors.Is(pushErr, client.ErrUnauthorized) {
				return report, pushErr
			}
			continue
		}
		report.Pushed++
	}

	tombstones, err := s.repo.GetDeleted(ctx)
	if err != nil {
		return report, fmt.Errorf("error retrieving comments: %w", err)
	}
	for _, env := range tombstones {
		delErr := s.sync.Delete(ctx, env)
		switch {
		case delErr == nil, errors.Is(delErr, reconcile.ErrURLUnknown), errors.Is(delErr, client.ErrNotFound):
			if err := s.repo.Purge(ctx, env.MessageID); err != nil {
				return report, fmt.Errorf("error deleting comment: %w", err)
			}
			report.Deleted++
		default:
			report.Failures = append(report.Failures, Failure{ID: env.MessageID, Err: delErr})
			if errors.Is(delErr, client.ErrUnauthorized) {
				return report, delErr
			}
		}
	}

	return report, nil
}

// Import loads a comment file into the store. Records already stored with
// a later modification date are skipped. Imported records are marked for
// the server.
func (s *commentService) Import(ctx context.Context, path string) (int, error) {
	list, err := comments.ReadFile(path, nil)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", path, err)
	}

	var toSave []*comments.Envelope
	for _, env := range list {
		existing, err := s.repo.GetByID(ctx, env.MessageID)
		switch {
		case errors.Is(err, envelopes.ErrNotFound):
		case err != nil:
			return 0, fmt.Errorf("error retrieving comment: %w", err)
		case !env.IsNewerThan(existing):
			continue
		default:
			env.SetServerModifiableFields(existing)
		}
		env.ToBeSavedToServer = !env.ReadOnly
		toSave = append(toSave, env)
	}

	if err := s.repo.SaveAll(ctx, toSave); err != nil {
		return 0, fmt.Errorf("saving error: %w", err)
	}
	return len(toSave), nil
}

// Export writes the comments of the source to a file.
func (s *commentService) Export(ctx context.Context, path string) (int, error) {
	list, err := s.repo.GetBySource(ctx, s.source)
	if err != nil {
		return 0, fmt.Errorf("error retrieving comments: %w", err)
	}
	comments.Sort(list)

	if err := comments.WriteFile(path, list); err != nil {
		return 0, fmt.Errorf("export %s: %w", path, err)
	}
	if err := s.repo.SaveAll(ctx, list); err != nil {
		return 0, fmt.Errorf("saving error: %w", err)
	}
	return len(list), nil
}
