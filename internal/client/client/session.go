package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/colsync/internal/client/schema"
	"github.com/dmitrijs2005/colsync/internal/fragment"
	"github.com/dmitrijs2005/colsync/internal/logging"
	"github.com/dmitrijs2005/colsync/internal/shared"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	loginPath       = "api/authentication/login"
	principalPath   = "api/authentication/principal"
	annotationsPath = "api/annotations"
	apiPrefix       = "api/"
	loginFormAction = "j_spring_security_check"
)

// Session holds a cookie based login on one annotation service and the
// state tied to it: the principal, the target cache and the Transport that
// shares its cookies. One Session serves one transcription and must not be
// used from several goroutines at once.
type Session struct {
	http        *http.Client
	transport   *Transport
	log         logging.Logger
	credentials CredentialProvider
	targets     *TargetCache

	serviceURL     *url.URL
	annotationsURL *url.URL
	servicePath    string

	user      string
	principal string
	loggedIn  bool
}

type Option func(*sessionOptions)

type sessionOptions struct {
	httpClient  *http.Client
	log         logging.Logger
	notifier    Notifier
	credentials CredentialProvider
	limit       rate.Limit
}

// WithHTTPClient uses c for all requests. A cookie jar is installed when c
// has none.
func WithHTTPClient(c *http.Client) Option {
	return func(o *sessionOptions) { o.httpClient = c }
}

func WithLogger(l logging.Logger) Option {
	return func(o *sessionOptions) { o.log = l }
}

func WithNotifier(n Notifier) Option {
	return func(o *sessionOptions) { o.notifier = n }
}

func WithCredentialProvider(p CredentialProvider) Option {
	return func(o *sessionOptions) { o.credentials = p }
}

// WithRateLimit paces requests to at most perSecond; zero or less means
// unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(o *sessionOptions) {
		if perSecond > 0 {
			o.limit = rate.Limit(perSecond)
		}
	}
}

func NewSession(opts ...Option) *Session {
	o := sessionOptions{limit: rate.Inf}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	if o.httpClient.Jar == nil {
		o.httpClient.Jar = newJar()
	}
	if o.log == nil {
		o.log = logging.NewDiscardLogger()
	}
	if o.notifier == nil {
		o.notifier = nopNotifier{}
	}

	s := &Session{
		http:        o.httpClient,
		log:         o.log,
		credentials: o.credentials,
		targets:     NewTargetCache(),
	}
	s.transport = &Transport{
		http:           o.httpClient,
		notifier:       o.notifier,
		limiter:        rate.NewLimiter(o.limit, 1),
		log:            o.log,
		onUnauthorized: s.markLoggedOut,
	}
	return s
}

func newJar() http.CookieJar {
	// cookiejar.New only fails on a nil PublicSuffixList
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

// Login registers the service and user. It does not contact the server;
// call Authenticate for that.
func (s *Session) Login(serviceURL, user string) error {
	if !strings.HasSuffix(serviceURL, "/") {
		serviceURL += "/"
	}
	u, err := url.Parse(serviceURL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("%w: service url %q", fragment.ErrInvalidURI, serviceURL)
	}

	s.serviceURL = u
	s.annotationsURL = u.ResolveReference(&url.URL{Path: annotationsPath})
	s.servicePath = u.Path + apiPrefix
	s.user = user
	return nil
}

// Authenticate logs in with a browser style form login and then asks the
// server who we are. Any status of 400 or more, or an empty principal, is a
// failure. It never retries.
func (s *Session) Authenticate(ctx context.Context, user string, password []byte) error {
	if s.serviceURL == nil {
		return ErrNotLoggedIn
	}
	s.user = user
	log := s.log.With("service", s.serviceURL.String(), "user", user)

	formPage, err := s.fetchLoginPage(ctx)
	if err != nil {
		log.Error(ctx, "login page failed", "error", err)
		return err
	}

	form := url.Values{
		"username": {user},
		"password": {string(password)},
		"submit":   {"submit"},
	}
	action := formPage.ResolveReference(&url.URL{Path: loginFormAction})
	if err := s.postForm(ctx, action, form); err != nil {
		log.Error(ctx, "login form rejected", "error", err)
		return err
	}

	var p schema.Principal
	if err := s.transport.Get(ctx, s.serviceURL.ResolveReference(&url.URL{Path: principalPath}), &p); err != nil {
		s.markLoggedOut()
		log.Error(ctx, "principal lookup failed", "error", err)
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if p.Href == "" {
		s.markLoggedOut()
		log.Error(ctx, "server returned an empty principal")
		return fmt.Errorf("%w: empty principal", ErrLoginFailed)
	}

	s.principal = p.Href
	s.loggedIn = true
	log.Info(ctx, "logged in", "principal", p.Href)
	return nil
}

// fetchLoginPage requests the login entry point and returns the URL the
// redirects ended on.
func (s *Session) fetchLoginPage(ctx context.Context) (*url.URL, error) {
	u := s.serviceURL.ResolveReference(&url.URL{Path: loginPath})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: GET %s: %s", ErrLoginFailed, u, resp.Status)
	}
	return resp.Request.URL, nil
}

func (s *Session) postForm(ctx context.Context, u *url.URL, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: POST %s: %s", ErrLoginFailed, u, resp.Status)
	}
	return nil
}

// ReauthenticateInteractively asks the CredentialProvider for a password
// until Authenticate succeeds. It returns ErrCancelled when the user gives
// up.
func (s *Session) ReauthenticateInteractively(ctx context.Context) error {
	if s.credentials == nil {
		return fmt.Errorf("%w: no credential provider", ErrCancelled)
	}
	if s.serviceURL == nil {
		return ErrNotLoggedIn
	}

	for {
		password, ok, err := s.credentials.Password(ctx, s.serviceURL.String(), s.user)
		if err != nil {
			return err
		}
		if !ok {
			s.log.Warn(ctx, "password prompt cancelled", "user", s.user)
			return ErrCancelled
		}

		err = s.Authenticate(ctx, s.user, password)
		shared.WipeByteArray(password)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warn(ctx, "authentication failed, asking again", "user", s.user, "error", err)
	}
}

// Logout forgets the session cookies and the principal. The service has no
// logout endpoint, so nothing is sent.
func (s *Session) Logout() {
	s.http.Jar = newJar()
	s.markLoggedOut()
}

// Close logs out and releases idle connections. The Session must not be
// used afterwards.
func (s *Session) Close() {
	s.Logout()
	s.http.CloseIdleConnections()
}

func (s *Session) markLoggedOut() {
	s.loggedIn = false
	s.principal = ""
}

func (s *Session) IsLoggedIn() bool { return s.loggedIn }

// Principal is the href of the authenticated user, "" when logged out.
func (s *Session) Principal() string { return s.principal }

func (s *Session) User() string { return s.user }

// ServiceURL is the service root with a trailing slash, "" before Login.
func (s *Session) ServiceURL() string {
	if s.serviceURL == nil {
		return ""
	}
	return s.serviceURL.String()
}

// AnnotationsURL is the annotation collection endpoint.
func (s *Session) AnnotationsURL() *url.URL {
	if s.annotationsURL == nil {
		return nil
	}
	u := *s.annotationsURL
	return &u
}

// ServicePath is the path of the API root, e.g. "/ds/webannotator/api/".
func (s *Session) ServicePath() string { return s.servicePath }

func (s *Session) Targets() *TargetCache { return s.targets }

func (s *Session) Transport() *Transport { return s.transport }

// Resolve resolves a server supplied reference, relative or absolute,
// against the service URL.
func (s *Session) Resolve(ref string) (*url.URL, error) {
	if s.serviceURL == nil {
		return nil, ErrNotLoggedIn
	}
	r, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", fragment.ErrInvalidURI, ref, err)
	}
	return s.serviceURL.ResolveReference(r), nil
}
