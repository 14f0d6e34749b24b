// Package devserver is an in-memory implementation of the task tracker's
// REST API. It backs `taskboard devserver` and the client integration tests.
package devserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/gorilla/mux"
	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/remote"
	"github.com/rs/cors"
)

// tokenTTL is how long issued tokens stay valid.
const tokenTTL = 7 * 24 * time.Hour

// User is an account the server accepts at login.
type User struct {
	model.User
	Password string
}

// Server routes API requests to an in-memory data set.
type Server struct {
	handler http.Handler
	data    *data
	users   map[string]User
	secret  []byte
	clock   clock.Clock
	log     lgr.L
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the time source for createdAt and carry-over stamps.
func WithClock(c clock.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithLogger sets the request logger.
func WithLogger(l lgr.L) Option {
	return func(s *Server) { s.log = l }
}

// WithDepartments seeds the department list. Without it the departments of
// the configured users are used.
func WithDepartments(names ...string) Option {
	return func(s *Server) {
		for _, n := range names {
			s.data.addDepartment(n)
		}
	}
}

// New returns a server accepting the given users, signing tokens with
// secret.
func New(users []User, secret []byte, opts ...Option) *Server {
	s := &Server{
		data:   newData(),
		users:  make(map[string]User, len(users)),
		secret: secret,
		clock:  clock.Real{},
		log:    lgr.NoOp,
	}
	for _, u := range users {
		s.users[u.Username] = u
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.data.departments) == 0 {
		for _, u := range users {
			s.data.addDepartment(u.Department)
		}
	}

	r := mux.NewRouter()
	s.registerRoutes(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})
	s.handler = c.Handler(s.logRequests(r))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) registerRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.auth)

	authed.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	authed.HandleFunc("/tasks", s.handleCreateTask).Methods(http.MethodPost)
	authed.HandleFunc("/tasks/{id:[0-9]+}/status", s.handleUpdateStatus).Methods(http.MethodPatch)
	authed.HandleFunc("/tasks/{id:[0-9]+}/carryover", s.handleCarryOver).Methods(http.MethodPost)

	authed.HandleFunc("/notifications", s.handleListNotifications).Methods(http.MethodGet)
	authed.HandleFunc("/notifications", s.handleCreateNotification).Methods(http.MethodPost)
	authed.HandleFunc("/notifications/{id:[0-9]+}/read", s.handleMarkRead).Methods(http.MethodPatch)
	authed.HandleFunc("/notifications/{id:[0-9]+}", s.handleDeleteNotification).Methods(http.MethodDelete)

	authed.HandleFunc("/departments", s.handleListDepartments).Methods(http.MethodGet)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Logf("[DEBUG] %s %s (%s) request_id=%s", r.Method, r.URL.Path,
			time.Since(start).Round(time.Microsecond), r.Header.Get("X-Request-ID"))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, remote.ErrorResponse{Error: msg})
}
