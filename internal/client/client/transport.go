package client

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/colsync/internal/logging"
	"golang.org/x/time/rate"
)

// Transport performs single HTTP exchanges with the annotation service and
// classifies their outcome. It shares the Session's HTTP client, and so its
// cookies.
type Transport struct {
	http           *http.Client
	notifier       Notifier
	limiter        *rate.Limiter
	log            logging.Logger
	onUnauthorized func()
}

// Get fetches u and decodes the XML response into out.
func (t *Transport) Get(ctx context.Context, u *url.URL, out any) error {
	return t.exchange(ctx, http.MethodGet, u, nil, out)
}

// Delete removes the resource at u.
func (t *Transport) Delete(ctx context.Context, u *url.URL) error {
	return t.exchange(ctx, http.MethodDelete, u, nil, nil)
}

// Post sends body to u and decodes the response into out, which may be nil.
func (t *Transport) Post(ctx context.Context, u *url.URL, body Payload, out any) error {
	return t.exchange(ctx, http.MethodPost, u, body, out)
}

// Put replaces the resource at u with body and decodes the response into
// out, which may be nil.
func (t *Transport) Put(ctx context.Context, u *url.URL, body Payload, out any) error {
	return t.exchange(ctx, http.MethodPut, u, body, out)
}

func (t *Transport) exchange(ctx context.Context, method string, u *url.URL, body Payload, out any) error {
	target := u.String()
	log := t.log.With("method", method, "url", target)

	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	var (
		r  io.Reader
		ct string
	)
	if body != nil {
		var err error
		if r, ct, err = body.encode(); err != nil {
			log.Error(ctx, "encoding request failed", "error", err)
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		log.Error(ctx, "building request failed", "error", err)
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	log.Debug(ctx, "request")
	resp, err := t.http.Do(req)
	if err != nil {
		log.Error(ctx, "request failed", "error", err)
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if serr := statusError(method, target, resp.StatusCode, resp.Status); serr != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		t.report(ctx, serr)
		return serr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Error(ctx, "decoding response failed", "error", err)
		return fmt.Errorf("%w: %s %s: %v", ErrWireFormat, method, target, err)
	}
	return nil
}

func (t *Transport) report(ctx context.Context, e *StatusError) {
	t.log.Warn(ctx, "server refused request", "method", e.Method, "url", e.URL, "status", e.Status)

	switch e.Code {
	case http.StatusUnauthorized:
		if t.onUnauthorized != nil {
			t.onUnauthorized()
		}
		t.notifier.Unauthorized(ctx, e.Method, e.URL)
	case http.StatusForbidden:
		t.notifier.Forbidden(ctx, e.Method, e.URL)
	}
}
