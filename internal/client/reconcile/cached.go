package reconcile

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/colsync/internal/client/client"
	"github.com/dmitrijs2005/colsync/internal/client/schema"
	"github.com/dmitrijs2005/colsync/internal/comments"
	"github.com/dmitrijs2005/colsync/internal/fragment"
)

const (
	cachedMimeType   = "application/xml"
	cachedTool       = "ELAN"
	cachedType       = "EAF"
	snapshotMimeType = "application/octet-stream"
)

// uploadCached answers every cached representation request in actions.
// Failures are logged only.
func (e *Engine) uploadCached(ctx context.Context, env *comments.Envelope, actions []schema.Action) {
	for _, a := range actions {
		if a.Message != schema.ActionCreateCachedRepresentation {
			continue
		}
		if err := e.postCached(ctx, env, a.Object); err != nil {
			e.log.Warn(ctx, "cached representation upload failed", "id", env.MessageID, "target", a.Object, "error", err)
		}
	}
}

func (e *Engine) postCached(ctx context.Context, env *comments.Envelope, target string) error {
	base, err := e.session.Resolve(target + "/")
	if err != nil {
		return err
	}
	// parsed from text so the escaped fragment survives in RawPath
	ref, err := url.Parse("fragment/" + fragment.EscapeForCache(env.Fragment()) + "/cached")
	if err != nil {
		return fmt.Errorf("%w: %v", fragment.ErrInvalidURI, err)
	}
	u := base.ResolveReference(ref)

	snap, err := e.snapshots.Open(ctx, env.URIBase)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer snap.Close()

	// the upload goes to the object the server named, but describes the
	// comment's own target
	info := schema.CachedRepresentationInfo{
		Xmlns:    schema.Namespace,
		ID:       lastPathPart(env.AnnotationFileURL),
		Href:     env.AnnotationFileURL,
		MimeType: cachedMimeType,
		Tool:     cachedTool,
		Type:     cachedType,
	}
	body := client.Multipart(client.XML(info), client.Raw(snapshotMimeType, snap))

	if err := e.session.Transport().Post(ctx, u, body, nil); err != nil {
		return err
	}
	e.log.Info(ctx, "uploaded cached representation", "url", u.String())
	return nil
}
