/*
   Copyright 2026 The Tapp Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package mockserver is an in-process stand-in for the Tapp resolution
// backend. It records every call and answers from programmable state, for
// tests and for `tappctl mock-server`.
package mockserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"tapp.so/tapp/apis"
)

// Prefix is the mount point of the backend routes.
const Prefix = "/v1/ref"

// Call is one recorded request.
type Call struct {
	Path          string
	Authorization string
	Body          map[string]any
}

// Reply is a scripted fingerprint answer. A nil Body is sent as JSON null.
type Reply struct {
	Delay time.Duration
	Body  any
}

// Server is the programmable backend. The zero value is not usable; call New.
type Server struct {
	mu              sync.Mutex
	secret          string
	impressionError string
	linkData        map[string]apis.LinkDataResponse
	replies         []Reply
	calls           []Call
	logger          *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the secret returned by /secrets. Empty means "no secret".
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = secret }
}

// WithLogger logs every request on l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New constructs a Server that issues a random secret and accepts impressions.
func New(opts ...Option) *Server {
	s := &Server{
		secret:   "secret-" + uuid.NewString(),
		linkData: make(map[string]apis.LinkDataResponse),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// FailImpressions makes /deeplink answer error=true with message. Empty restores success.
func (s *Server) FailImpressions(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.impressionError = message
}

// SetLinkData programs the /linkData answer for token.
func (s *Server) SetLinkData(token string, resp apis.LinkDataResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkData[token] = resp
}

// SetFingerprintReplies scripts /fingerprint answers in order; the last one repeats.
func (s *Server) SetFingerprintReplies(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append([]Reply(nil), replies...)
}

// Calls returns the recorded calls for path ("secrets", "deeplink", ...).
// An empty path returns every call.
func (s *Server) Calls(path string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if path == "" || c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the number of calls to path.
func (s *Server) Count(path string) int { return len(s.Calls(path)) }

// Handler returns the chi router serving the backend under Prefix.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route(Prefix, func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Post("/secrets", s.handleSecrets)
		r.Post("/deeplink", s.handleDeeplink)
		r.Post("/linkData", s.handleLinkData)
		r.Post("/event", s.handleEvent)
		r.Post("/fingerprint", s.handleFingerprint)
		r.Post("/influencer/add", s.handleInfluencerAdd)
	})
	return r
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": true, "message": "missing bearer token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// record decodes and stores the request. It returns false after answering 400.
func (s *Server) record(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": true, "message": "invalid json"})
		return nil, false
	}
	path := strings.TrimPrefix(r.URL.Path, Prefix+"/")
	s.mu.Lock()
	s.calls = append(s.calls, Call{Path: path, Authorization: r.Header.Get("Authorization"), Body: body})
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Info("mock backend call", slog.String("path", path), slog.Any("body", body))
	}
	return body, true
}

func (s *Server) handleSecrets(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.record(w, r); !ok {
		return
	}
	s.mu.Lock()
	secret := s.secret
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"secret": secret})
}

func (s *Server) handleDeeplink(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.record(w, r); !ok {
		return
	}
	s.mu.Lock()
	msg := s.impressionError
	s.mu.Unlock()
	if msg != "" {
		writeJSON(w, http.StatusOK, map[string]any{"error": true, "message": msg})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"error": false, "message": "ok"})
}

func (s *Server) handleLinkData(w http.ResponseWriter, r *http.Request) {
	body, ok := s.record(w, r)
	if !ok {
		return
	}
	token, _ := body["link_token"].(string)
	s.mu.Lock()
	resp, found := s.linkData[token]
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"error": true, "message": "link token not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"error":         resp.Error,
		"message":       resp.Message,
		"tapp_url":      resp.TappURL,
		"attr_tapp_url": resp.AttrTappURL,
		"influencer":    resp.Influencer,
		"data":          resp.Data,
	})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.record(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"error": false, "message": "tracked"})
}

func (s *Server) handleFingerprint(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.record(w, r); !ok {
		return
	}
	s.mu.Lock()
	reply := Reply{}
	if len(s.replies) > 0 {
		idx := s.countLocked("fingerprint") - 1
		if idx >= len(s.replies) {
			idx = len(s.replies) - 1
		}
		reply = s.replies[idx]
	}
	s.mu.Unlock()

	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-r.Context().Done():
			return
		}
	}
	writeJSON(w, http.StatusOK, reply.Body)
}

func (s *Server) handleInfluencerAdd(w http.ResponseWriter, r *http.Request) {
	body, ok := s.record(w, r)
	if !ok {
		return
	}
	influencer, _ := body["influencer"].(string)
	if influencer == "" {
		writeJSON(w, http.StatusOK, map[string]any{"error": true, "message": "influencer is required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"error":          false,
		"message":        "created",
		"influencer_url": "https://tapp.so/i/" + influencer,
	})
}

func (s *Server) countLocked(path string) int {
	n := 0
	for _, c := range s.calls {
		if c.Path == path {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
