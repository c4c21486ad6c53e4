package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/colsync/internal/client/client"
	"github.com/dmitrijs2005/colsync/internal/client/schema"
	"github.com/dmitrijs2005/colsync/internal/comments"
	"github.com/dmitrijs2005/colsync/internal/logging"
)

const (
	annotationPlaceholder = "__TEMP_ANNOTATION_REF__"
	targetPlaceholder     = "__TEMP_TARGET_REF__"

	headlineLength = 40
	bodyMimeType   = "text/xml"
)

// FetchResult partitions the server's annotations for one transcription.
type FetchResult struct {
	// Fetched holds freshly downloaded envelopes, server fields set.
	Fetched []*comments.Envelope
	// Unchanged holds the local envelopes whose server timestamp matched.
	Unchanged []*comments.Envelope
	// Failed holds hrefs listed by the server that could not be downloaded.
	Failed []string
}

type Engine struct {
	session *client.Session
	log     logging.Logger

	cached    bool
	snapshots SnapshotSource
}

type Option func(*Engine)

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithCachedRepresentation answers the server's requests for a cached
// representation with snapshots from src.
func WithCachedRepresentation(src SnapshotSource) Option {
	return func(e *Engine) {
		e.cached = src != nil
		e.snapshots = src
	}
}

func NewEngine(s *client.Session, opts ...Option) *Engine {
	e := &Engine{session: s, log: logging.NewDiscardLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fetch downloads the annotations of sourceURN that differ from local.
// If the list itself cannot be read it returns an error wrapping
// ErrUnknown and no result.
func (e *Engine) Fetch(ctx context.Context, sourceURN string, local []*comments.Envelope) (*FetchResult, error) {
	log := e.log.With("source", sourceURN)

	listURL := e.session.AnnotationsURL()
	if listURL == nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknown, client.ErrNotLoggedIn)
	}
	listURL.RawQuery = url.Values{
		"access":    {schema.AccessRead},
		"link":      {sourceURN},
		"matchMode": {"exact"},
	}.Encode()

	var list schema.AnnotationInfoList
	if err := e.session.Transport().Get(ctx, listURL, &list); err != nil {
		log.Error(ctx, "listing annotations failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnknown, err)
	}

	byURL := make(map[string]*comments.Envelope, len(local))
	for _, env := range local {
		if env.MessageURL != "" {
			byURL[env.MessageURL] = env
		}
	}

	e.rememberTarget(ctx, log, sourceURN, list.AnnotationInfo)

	res := &FetchResult{}
	seen := make(map[string]bool)
	for _, info := range list.AnnotationInfo {
		if env, ok := byURL[info.Href]; ok && !env.LastModifiedOnServer.IsZero() && env.LastModifiedOnServer.Equal(info.LastModified) {
			res.Unchanged = append(res.Unchanged, env)
			seen[env.MessageID] = true
			continue
		}

		env, err := e.fetchOne(ctx, info)
		if err != nil {
			log.Warn(ctx, "fetching annotation failed", "href", info.Href, "error", err)
			res.Failed = append(res.Failed, info.Href)
			continue
		}
		if seen[env.MessageID] {
			log.Warn(ctx, "duplicate message id dropped", "id", env.MessageID, "href", info.Href)
			continue
		}
		seen[env.MessageID] = true
		res.Fetched = append(res.Fetched, env)
	}

	log.Info(ctx, "fetched annotations",
		"listed", len(list.AnnotationInfo), "fetched", len(res.Fetched),
		"unchanged", len(res.Unchanged), "failed", len(res.Failed))
	return res, nil
}

// rememberTarget caches the first target seen. A transcription is expected
// to have exactly one; others are reported and ignored.
func (e *Engine) rememberTarget(ctx context.Context, log logging.Logger, sourceURN string, infos []schema.AnnotationInfo) {
	first := ""
	for _, info := range infos {
		t := info.FirstTarget()
		switch {
		case t == "":
		case first == "":
			first = t
		case t != first:
			log.Warn(ctx, "transcription has more than one target", "kept", first, "ignored", t)
		}
	}
	if first != "" {
		e.session.Targets().Put(sourceURN, first)
	}
}

func (e *Engine) fetchOne(ctx context.Context, info schema.AnnotationInfo) (*comments.Envelope, error) {
	u, err := e.session.Resolve(info.Href)
	if err != nil {
		return nil, err
	}

	var a schema.Annotation
	if err := e.session.Transport().Get(ctx, u, &a); err != nil {
		return nil, err
	}
	if a.Body.XMLBody == nil {
		return nil, fmt.Errorf("%w: annotation %s has no xml body", client.ErrWireFormat, info.Href)
	}

	env, err := comments.UnmarshalEnvelope(a.Body.XMLBody.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", client.ErrWireFormat, err)
	}

	// the server is authoritative for its own identifiers
	env.MessageURL = info.Href
	env.AnnotationFileURL = info.FirstTarget()
	if env.AnnotationFileURL == "" && len(a.Targets.TargetInfo) > 0 {
		env.AnnotationFileURL = a.Targets.TargetInfo[0].Href
	}
	env.LastModifiedOnServer = a.LastModified
	if env.LastModifiedOnServer.IsZero() {
		env.LastModifiedOnServer = info.LastModified
	}
	env.ReadOnly = !a.Permissions.Writable(e.session.Principal())
	env.ToBeSavedToServer = false
	return env, nil
}

// Push stores env on the server, creating it when it has no known server
// URL. A record that vanished on the server is created again, once. On
// success the server fields of env are updated and its pending flag is
// cleared.
func (e *Engine) Push(ctx context.Context, env *comments.Envelope) error {
	log := e.log.With("id", env.MessageID)

	if env.ReadOnly {
		env.ToBeSavedToServer = false
		log.Warn(ctx, "not pushing read-only comment")
		return fmt.Errorf("%w: %s", ErrReadOnly, env.MessageID)
	}

	actions, err := e.push(ctx, env)
	if errors.Is(err, client.ErrNotFound) {
		log.Warn(ctx, "annotation gone on server, creating it again", "url", env.MessageURL)
		env.MessageURL = ""
		actions, err = e.push(ctx, env)
	}
	if err != nil {
		log.Error(ctx, "push failed", "error", err)
		return err
	}

	env.ToBeSavedToServer = false
	log.Debug(ctx, "pushed", "url", env.MessageURL)

	if e.cached {
		e.uploadCached(ctx, env, actions)
	}
	return nil
}

func (e *Engine) push(ctx context.Context, env *comments.Envelope) ([]schema.Action, error) {
	urlKnown := e.annotationURLKnown(env.MessageURL)
	target, targetKnown := e.knownTarget(env)

	wire := env.Clone()
	if !urlKnown {
		wire.MessageURL = annotationPlaceholder
	}
	if targetKnown {
		env.AnnotationFileURL = target
		wire.AnnotationFileURL = target
	} else {
		wire.AnnotationFileURL = targetPlaceholder
	}

	a, err := e.annotation(wire)
	if err != nil {
		return nil, err
	}

	if urlKnown {
		return e.update(ctx, env, a)
	}
	return e.create(ctx, env, a, targetKnown)
}

func (e *Engine) update(ctx context.Context, env *comments.Envelope, a *schema.Annotation) ([]schema.Action, error) {
	bodyURL, err := e.session.Resolve(env.MessageURL + "/body")
	if err != nil {
		return nil, err
	}

	var reply schema.ResponseBody
	if err := e.session.Transport().Put(ctx, bodyURL, client.XML(a.Body), &reply); err != nil {
		return nil, err
	}
	if reply.Annotation == nil {
		return nil, fmt.Errorf("%w: no annotation in reply to %s", client.ErrWireFormat, bodyURL)
	}
	env.LastModifiedOnServer = reply.Annotation.LastModified
	actions := reply.Actions()

	if reply.Annotation.Headline != a.Headline {
		headlineURL, err := e.session.Resolve(env.MessageURL + "/headline")
		if err != nil {
			return nil, err
		}
		var hr schema.ResponseBody
		if err := e.session.Transport().Put(ctx, headlineURL, client.Text(a.Headline), &hr); err != nil {
			return nil, err
		}
		if hr.Annotation != nil {
			env.LastModifiedOnServer = hr.Annotation.LastModified
		}
		actions = append(actions, hr.Actions()...)
	}
	return actions, nil
}

func (e *Engine) create(ctx context.Context, env *comments.Envelope, a *schema.Annotation, targetKnown bool) ([]schema.Action, error) {
	var reply schema.ResponseBody
	if err := e.session.Transport().Post(ctx, e.session.AnnotationsURL(), client.XML(a), &reply); err != nil {
		return nil, err
	}
	if reply.Annotation == nil || reply.Annotation.Href == "" {
		return nil, fmt.Errorf("%w: no annotation href in create reply", client.ErrWireFormat)
	}

	env.MessageURL = reply.Annotation.Href
	env.LastModifiedOnServer = reply.Annotation.LastModified

	if !targetKnown && len(reply.Annotation.Targets.TargetInfo) > 0 {
		target := reply.Annotation.Targets.TargetInfo[0].Href
		e.session.Targets().Put(env.URIBase, target)
		env.AnnotationFileURL = target
	}
	return reply.Actions(), nil
}

// annotation builds the wire record for wire, whose unknown identifiers are
// already placeholders.
func (e *Engine) annotation(wire *comments.Envelope) (*schema.Annotation, error) {
	body, err := comments.MarshalEnvelope(wire)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", client.ErrWireFormat, err)
	}
	principal := e.session.Principal()

	return &schema.Annotation{
		Xmlns:        schema.Namespace,
		ID:           lastPathPart(wire.MessageURL),
		Href:         wire.MessageURL,
		OwnerHref:    principal,
		Headline:     headline(wire.Message),
		LastModified: wire.CreationDate,
		Body: schema.Body{
			XMLBody: &schema.XMLBody{MimeType: bodyMimeType, Content: body},
		},
		Targets: schema.TargetInfoList{TargetInfo: []schema.TargetInfo{
			{Href: wire.AnnotationFileURL, Link: wire.URIBase},
		}},
		Permissions: schema.PermissionList{
			Public:      schema.AccessRead,
			Permissions: []schema.Permission{{PrincipalHref: principal, Level: schema.AccessWrite}},
		},
	}, nil
}

// annotationURLKnown reports whether u points into this service's API.
func (e *Engine) annotationURLKnown(u string) bool {
	if u == "" {
		return false
	}
	if strings.HasPrefix(u, "http") {
		return strings.HasPrefix(u, e.session.ServiceURL()+"api/")
	}
	return strings.HasPrefix(u, e.session.ServicePath())
}

// knownTarget looks the transcription up in the target cache. Only targets
// the server reported are cached; the envelope's own AnnotationFileURL is
// not trusted.
func (e *Engine) knownTarget(env *comments.Envelope) (string, bool) {
	return e.session.Targets().Get(env.URIBase)
}

// Delete removes env from the server. It does not change env.
func (e *Engine) Delete(ctx context.Context, env *comments.Envelope) error {
	log := e.log.With("id", env.MessageID)

	if env.ReadOnly {
		env.ToBeSavedToServer = false
		log.Warn(ctx, "not deleting read-only comment")
		return fmt.Errorf("%w: %s", ErrReadOnly, env.MessageID)
	}
	if !e.annotationURLKnown(env.MessageURL) {
		return fmt.Errorf("%w: %s", ErrURLUnknown, env.MessageID)
	}

	u, err := e.session.Resolve(env.MessageURL)
	if err != nil {
		return err
	}
	if err := e.session.Transport().Delete(ctx, u); err != nil {
		if errors.Is(err, client.ErrForbidden) {
			return fmt.Errorf("%w: comment belongs to another user", err)
		}
		return err
	}

	log.Debug(ctx, "deleted", "url", env.MessageURL)
	return nil
}

func headline(message string) string {
	r := []rune(message)
	if len(r) > headlineLength {
		r = r[:headlineLength]
	}
	return string(r)
}

func lastPathPart(u string) string {
	u = strings.TrimSuffix(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}
