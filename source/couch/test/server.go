package couchtest

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Request is a request received by Server.
// Body is stored decompressed.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// Server is a fake CouchDB server that replies to known routes with canned JSON.
// Unknown routes get a CouchDB-style not_found error.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]route
	reqs   []Request
}

type route struct {
	status int
	body   string
}

// NewServer starts a fake server that is closed with the test.
func NewServer(tb testing.TB) *Server {
	s := &Server{routes: make(map[string]route)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	tb.Cleanup(s.Close)
	return s
}

// Handle sets a 200 OK reply for a route.
func (s *Server) Handle(method, path, body string) {
	s.HandleStatus(method, path, http.StatusOK, body)
}

// HandleStatus sets a reply with a custom status for a route.
func (s *Server) HandleStatus(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = route{status: status, body: body}
}

// Requests returns all requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request{}, s.reqs...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	var src io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer zr.Close()
		src = zr
	}
	body, _ := io.ReadAll(src)

	s.mu.Lock()
	s.reqs = append(s.reqs, Request{
		Method: r.Method, Path: r.URL.Path,
		Query: r.URL.Query(), Body: body,
	})
	rt, ok := s.routes[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if !ok {
		rt = route{
			status: http.StatusNotFound,
			body:   `{"error":"not_found","reason":"Database does not exist."}`,
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rt.status)
	_, _ = io.WriteString(w, rt.body)
}
