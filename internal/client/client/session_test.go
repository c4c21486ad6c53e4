package client

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/dmitrijs2005/colsync/internal/client/dwantest"
	"github.com/dmitrijs2005/colsync/internal/client/schema"
	"github.com/dmitrijs2005/colsync/internal/fragment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCredentials struct {
	answers [][]byte
	asked   int
}

func (f *fakeCredentials) Password(ctx context.Context, serviceURL, user string) ([]byte, bool, error) {
	if f.asked >= len(f.answers) {
		f.asked++
		return nil, false, nil
	}
	pw := f.answers[f.asked]
	f.asked++
	return append([]byte(nil), pw...), true, nil
}

func TestLogin_DerivesURLs(t *testing.T) {
	s := NewSession()

	require.NoError(t, s.Login("https://annotations.example.org/ds/webannotator", "alice"))

	assert.Equal(t, "https://annotations.example.org/ds/webannotator/", s.ServiceURL())
	assert.Equal(t, "https://annotations.example.org/ds/webannotator/api/annotations", s.AnnotationsURL().String())
	assert.Equal(t, "/ds/webannotator/api/", s.ServicePath())
	assert.Equal(t, "alice", s.User())
	assert.False(t, s.IsLoggedIn())
}

func TestLogin_InvalidURL(t *testing.T) {
	s := NewSession()
	assert.ErrorIs(t, s.Login("not a url", "alice"), fragment.ErrInvalidURI)
	assert.ErrorIs(t, s.Login("http://[::1", "alice"), fragment.ErrInvalidURI)
}

func TestAuthenticate_Success(t *testing.T) {
	srv := dwantest.NewServer(t)
	s := NewSession()
	require.NoError(t, s.Login(srv.ServiceURL(), srv.User))

	require.NoError(t, s.Authenticate(context.Background(), srv.User, []byte(srv.Password)))

	assert.True(t, s.IsLoggedIn())
	assert.Equal(t, srv.Principal, s.Principal())
	assert.Equal(t, 1, srv.Count(http.MethodPost, "/ds/j_spring_security_check"))
	assert.Equal(t, 1, srv.Count(http.MethodGet, "/ds/api/authentication/principal"))
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	srv := dwantest.NewServer(t)
	s := NewSession()
	require.NoError(t, s.Login(srv.ServiceURL(), srv.User))

	err := s.Authenticate(context.Background(), srv.User, []byte("wrong"))

	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.False(t, s.IsLoggedIn())
	assert.Zero(t, srv.Count(http.MethodGet, "/ds/api/authentication/principal"))
}

func TestAuthenticate_EmptyPrincipalFails(t *testing.T) {
	srv := dwantest.NewServer(t)
	srv.Principal = ""
	s := NewSession()
	require.NoError(t, s.Login(srv.ServiceURL(), srv.User))

	err := s.Authenticate(context.Background(), srv.User, []byte(srv.Password))

	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.False(t, s.IsLoggedIn())
	assert.Empty(t, s.Principal())
}

func TestAuthenticate_LoginPageError(t *testing.T) {
	srv := dwantest.NewServer(t)
	srv.Fail(http.MethodGet, "/ds/api/authentication/login", http.StatusServiceUnavailable)
	s := NewSession()
	require.NoError(t, s.Login(srv.ServiceURL(), srv.User))

	err := s.Authenticate(context.Background(), srv.User, []byte(srv.Password))

	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.Zero(t, srv.Count(http.MethodPost, ""))
}

func TestAuthenticate_BeforeLogin(t *testing.T) {
	assert.ErrorIs(t, NewSession().Authenticate(context.Background(), "u", nil), ErrNotLoggedIn)
}

func TestLogout_DropsCookiesWithoutNetwork(t *testing.T) {
	srv := dwantest.NewServer(t)
	s := NewSession()
	require.NoError(t, s.Login(srv.ServiceURL(), srv.User))
	require.NoError(t, s.Authenticate(context.Background(), srv.User, []byte(srv.Password)))

	before := len(srv.Calls())
	s.Logout()
	assert.Equal(t, before, len(srv.Calls()))
	assert.False(t, s.IsLoggedIn())
	assert.Empty(t, s.Principal())

	u, err := url.Parse(srv.ServiceURL() + "api/authentication/principal")
	require.NoError(t, err)
	var p schema.Principal
	assert.ErrorIs(t, s.Transport().Get(context.Background(), u, &p), ErrUnauthorized)
}

func TestReauthenticateInteractively(t *testing.T) {
	srv := dwantest.NewServer(t)

	t.Run("retries until success", func(t *testing.T) {
		creds := &fakeCredentials{answers: [][]byte{[]byte("nope"), []byte("still no"), []byte(srv.Password)}}
		s := NewSession(WithCredentialProvider(creds))
		require.NoError(t, s.Login(srv.ServiceURL(), srv.User))

		require.NoError(t, s.ReauthenticateInteractively(context.Background()))
		assert.Equal(t, 3, creds.asked)
		assert.True(t, s.IsLoggedIn())
	})

	t.Run("cancel stops", func(t *testing.T) {
		creds := &fakeCredentials{answers: [][]byte{[]byte("nope")}}
		s := NewSession(WithCredentialProvider(creds))
		require.NoError(t, s.Login(srv.ServiceURL(), srv.User))

		assert.ErrorIs(t, s.ReauthenticateInteractively(context.Background()), ErrCancelled)
		assert.Equal(t, 2, creds.asked)
		assert.False(t, s.IsLoggedIn())
	})

	t.Run("no provider", func(t *testing.T) {
		s := NewSession()
		require.NoError(t, s.Login(srv.ServiceURL(), srv.User))
		assert.ErrorIs(t, s.ReauthenticateInteractively(context.Background()), ErrCancelled)
	})
}

func TestResolve(t *testing.T) {
	s := NewSession()
	_, err := s.Resolve("/x")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, s.Login("http://host:8080/ds/", "alice"))

	u, err := s.Resolve("/ds/api/annotations/a1/body")
	require.NoError(t, err)
	assert.Equal(t, "http://host:8080/ds/api/annotations/a1/body", u.String())

	u, err = s.Resolve("http://other/ds/api/targets/t1")
	require.NoError(t, err)
	assert.Equal(t, "http://other/ds/api/targets/t1", u.String())

	_, err = s.Resolve("%zz")
	assert.ErrorIs(t, err, fragment.ErrInvalidURI)
}

func TestTargetCache(t *testing.T) {
	c := NewTargetCache()
	_, ok := c.Get("urn:a")
	assert.False(t, ok)

	c.Put("urn:a", "")
	assert.Zero(t, c.Len())

	c.Put("urn:a", "/ds/api/targets/t1")
	got, ok := c.Get("urn:a")
	assert.True(t, ok)
	assert.Equal(t, "/ds/api/targets/t1", got)

	c.Forget("urn:a")
	assert.Zero(t, c.Len())
}
