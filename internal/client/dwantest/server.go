// Package dwantest provides an in-process fake of a DASISH annotation
// service for tests: form login with a session cookie, the principal
// endpoint, annotation summaries, annotation CRUD with placeholder
// substitution, and cached representation uploads.
package dwantest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/colsync/internal/client/schema"
)

const (
	cookieName = "JSESSIONID"

	annotationPlaceholder = "__TEMP_ANNOTATION_REF__"
	targetPlaceholder     = "__TEMP_TARGET_REF__"
)

// Call is one request seen by the server.
type Call struct {
	Method string
	Path   string
}

// Upload is one cached representation received by the server.
type Upload struct {
	Path     string
	Info     schema.CachedRepresentationInfo
	Snapshot []byte
}

type Server struct {
	*httptest.Server

	// Base is the service path, e.g. "/ds/".
	Base      string
	User      string
	Password  string
	Principal string

	// Actions are attached to every successful write response.
	Actions []schema.Action

	mu          sync.Mutex
	clock       time.Time
	nextID      int
	session     string
	annotations map[string]*schema.Annotation // by href
	order       []string
	targets     map[string]string // link -> target href
	calls       []Call
	failures    map[string][]int
	uploads     []Upload
}

// NewServer starts a fake service with user alice/secret. It is closed when
// the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		Base:        "/ds/",
		User:        "alice",
		Password:    "secret",
		clock:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		annotations: make(map[string]*schema.Annotation),
		targets:     make(map[string]string),
		failures:    make(map[string][]int),
	}
	s.Principal = s.Base + "api/principals/alice"
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// ServiceURL is the absolute service root to pass to Session.Login.
func (s *Server) ServiceURL() string { return s.URL + s.Base }

// Fail makes the next request matching method and path answer with status.
// Several calls queue several failures.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.failures[key] = append(s.failures[key], status)
}

// Calls returns every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Count returns how many requests matched method and had a path with the
// given suffix. An empty method matches any.
func (s *Server) Count(method, pathSuffix string) int {
	n := 0
	for _, c := range s.Calls() {
		if (method == "" || c.Method == method) && strings.HasSuffix(c.Path, pathSuffix) {
			n++
		}
	}
	return n
}

// Writes counts POST, PUT and DELETE requests on the API.
func (s *Server) Writes() int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method != http.MethodGet && strings.HasPrefix(c.Path, s.Base+"api/") {
			n++
		}
	}
	return n
}

// Uploads returns the cached representations received so far.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Seed stores a with a fresh href under the target for link and returns the
// stored copy. Placeholders inside the body are substituted.
func (s *Server) Seed(a schema.Annotation, link string) *schema.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.store(a, link)
	cp := *stored
	return &cp
}

// Annotation returns a copy of the stored annotation, or nil.
func (s *Server) Annotation(href string) *schema.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.annotations[href]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// Touch bumps the last-modified time of href, as an edit by someone else
// would.
func (s *Server) Touch(href string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.annotations[href]; ok {
		a.LastModified = s.tick()
	}
}

// Remove deletes href behind the client's back.
func (s *Server) Remove(href string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(href)
}

// Target returns the target href registered for link.
func (s *Server) Target(link string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targets[link]
}

// SetTarget makes annotations stored for link from now on point at href.
func (s *Server) SetTarget(link, href string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[link] = href
}

func (s *Server) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Server) store(a schema.Annotation, link string) *schema.Annotation {
	s.nextID++
	id := fmt.Sprintf("a%d", s.nextID)
	href := s.Base + "api/annotations/" + id

	target, ok := s.targets[link]
	if !ok {
		target = fmt.Sprintf("%sapi/targets/t%d", s.Base, len(s.targets)+1)
		s.targets[link] = target
	}

	a.Xmlns = ""
	a.ID = id
	a.Href = href
	a.LastModified = s.tick()
	a.Targets = schema.TargetInfoList{TargetInfo: []schema.TargetInfo{{Href: target, Link: link}}}
	if a.Body.XMLBody != nil {
		content := string(a.Body.XMLBody.Content)
		content = strings.ReplaceAll(content, annotationPlaceholder, href)
		content = strings.ReplaceAll(content, targetPlaceholder, target)
		a.Body.XMLBody = &schema.XMLBody{MimeType: a.Body.XMLBody.MimeType, Content: []byte(content)}
	}

	s.annotations[href] = &a
	s.order = append(s.order, href)
	return &a
}

func (s *Server) remove(href string) {
	delete(s.annotations, href)
	for i, h := range s.order {
		if h == href {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := r.URL.EscapedPath()
	s.calls = append(s.calls, Call{Method: r.Method, Path: path})

	key := r.Method + " " + path
	if q := s.failures[key]; len(q) > 0 {
		s.failures[key] = q[1:]
		http.Error(w, http.StatusText(q[0]), q[0])
		return
	}

	rest, ok := strings.CutPrefix(path, s.Base)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case r.Method == http.MethodGet && rest == "api/authentication/login":
		http.Redirect(w, r, s.Base+"login", http.StatusFound)
	case r.Method == http.MethodGet && (rest == "login" || rest == ""):
		_, _ = io.WriteString(w, "<html><form action=\"j_spring_security_check\"></form></html>")
	case r.Method == http.MethodPost && rest == "j_spring_security_check":
		s.handleLogin(w, r)
	case !s.authorized(r):
		http.Error(w, "login required", http.StatusUnauthorized)
	case r.Method == http.MethodGet && rest == "api/authentication/principal":
		writeXML(w, http.StatusOK, schema.Principal{Xmlns: schema.Namespace, Href: s.Principal, DisplayName: s.User})
	case rest == "api/annotations":
		s.handleCollection(w, r)
	case strings.HasPrefix(rest, "api/annotations/"):
		s.handleAnnotation(w, r, strings.TrimPrefix(rest, "api/annotations/"))
	case r.Method == http.MethodPost && strings.HasPrefix(rest, "api/targets/") && strings.HasSuffix(rest, "/cached"):
		s.handleCached(w, r, path)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("username") != s.User || r.PostForm.Get("password") != s.Password || r.PostForm.Get("submit") == "" {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
		return
	}
	s.session = fmt.Sprintf("session-%d", len(s.calls))
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: s.session, Path: "/"})
	http.Redirect(w, r, s.Base, http.StatusFound)
}

func (s *Server) authorized(r *http.Request) bool {
	c, err := r.Cookie(cookieName)
	return err == nil && s.session != "" && c.Value == s.session
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		link := r.URL.Query().Get("link")
		list := schema.AnnotationInfoList{Xmlns: schema.Namespace}
		for _, href := range s.order {
			a := s.annotations[href]
			var refs []string
			match := false
			for _, ti := range a.Targets.TargetInfo {
				refs = append(refs, ti.Href)
				match = match || ti.Link == link
			}
			if !match {
				continue
			}
			list.AnnotationInfo = append(list.AnnotationInfo, schema.AnnotationInfo{
				Href:         a.Href,
				OwnerHref:    a.OwnerHref,
				Headline:     a.Headline,
				LastModified: a.LastModified,
				Targets:      schema.ReferenceList{Ref: refs},
			})
		}
		writeXML(w, http.StatusOK, list)

	case http.MethodPost:
		var a schema.Annotation
		if err := xml.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		link := ""
		if len(a.Targets.TargetInfo) > 0 {
			link = a.Targets.TargetInfo[0].Link
		}
		stored := s.store(a, link)
		s.reply(w, stored)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAnnotation(w http.ResponseWriter, r *http.Request, rest string) {
	id, sub, _ := strings.Cut(rest, "/")
	href := s.Base + "api/annotations/" + id
	a, ok := s.annotations[href]
	if !ok {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet && !a.Permissions.Writable(s.Principal) {
		http.Error(w, "not yours", http.StatusForbidden)
		return
	}

	switch {
	case r.Method == http.MethodGet && sub == "":
		writeXML(w, http.StatusOK, a)

	case r.Method == http.MethodDelete && sub == "":
		s.remove(href)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPut && sub == "body":
		var b schema.Body
		if err := xml.NewDecoder(r.Body).Decode(&b); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if b.XMLBody != nil && len(a.Targets.TargetInfo) > 0 {
			content := strings.ReplaceAll(string(b.XMLBody.Content), annotationPlaceholder, href)
			content = strings.ReplaceAll(content, targetPlaceholder, a.Targets.TargetInfo[0].Href)
			b.XMLBody = &schema.XMLBody{MimeType: b.XMLBody.MimeType, Content: []byte(content)}
		}
		a.Body = b
		a.LastModified = s.tick()
		s.reply(w, a)

	case r.Method == http.MethodPut && sub == "headline":
		data, _ := io.ReadAll(r.Body)
		a.Headline = string(data)
		a.LastModified = s.tick()
		s.reply(w, a)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCached(w http.ResponseWriter, r *http.Request, path string) {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mr := multipart.NewReader(r.Body, params["boundary"])

	up := Upload{Path: path}
	for i := 0; ; i++ {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(part)
		if i == 0 {
			if err := xml.Unmarshal(data, &up.Info); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		} else {
			up.Snapshot = data
		}
	}
	s.uploads = append(s.uploads, up)
	writeXML(w, http.StatusCreated, up.Info)
}

func (s *Server) reply(w http.ResponseWriter, a *schema.Annotation) {
	body := schema.ResponseBody{Xmlns: schema.Namespace, Annotation: a}
	if len(s.Actions) > 0 {
		body.ActionList = &schema.ActionList{Action: s.Actions}
	}
	writeXML(w, http.StatusOK, body)
}

func writeXML(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// PathEscape is url.PathEscape, exported for building expected paths.
func PathEscape(s string) string { return url.PathEscape(s) }
