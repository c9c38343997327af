package till

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// BasicAuth holds the till's credentials. Both empty disables authentication.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) enabled() bool {
	return a.Username != "" || a.Password != ""
}

// matches compares in constant time so a wrong password leaks no prefix length.
func (a BasicAuth) matches(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.Password)) == 1
	return userOK && passOK
}

// Server is the HTTP front end of one till.
type Server struct {
	service *Service
	auth    BasicAuth
	mux     *http.ServeMux
}

// NewServer creates a Server on a fresh mux
func NewServer(service *Service, auth BasicAuth) *Server {
	return NewServerWithMux(service, auth, http.NewServeMux())
}

// NewServerWithMux registers the till routes on mux
func NewServerWithMux(service *Service, auth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{service: service, auth: auth, mux: mux}
	s.registerRoutes()
	return s
}

func (s *Server) authenticate(r *http.Request) bool {
	if !s.auth.enabled() {
		return true
	}
	username, password, ok := r.BasicAuth()
	return ok && s.auth.matches(username, password)
}

// corsMiddleware adds CORS headers and answers preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="POS Terminal"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/scan", s.requireAuth(s.handleScan))
	s.mux.HandleFunc("GET /api/order", s.requireAuth(s.handleGetOrder))
	s.mux.HandleFunc("DELETE /api/order", s.requireAuth(s.handleCancelOrder))
	s.mux.HandleFunc("POST /api/checkout", s.requireAuth(s.handleCheckout))
	s.mux.HandleFunc("GET /api/products/{plu}", s.requireAuth(s.handleGetProduct))
	s.mux.HandleFunc("GET /api/languages", s.requireAuth(s.handleListLanguages))
	s.mux.HandleFunc("PUT /api/language", s.requireAuth(s.handleSetLanguage))
	s.mux.HandleFunc("GET /api/texts", s.requireAuth(s.handleTexts))

	// Catch-all last
	s.mux.HandleFunc("GET /index.html", s.requireAuth(s.handleIndex))
	s.mux.HandleFunc("GET /{$}", s.requireAuth(s.handleIndex))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.corsMiddleware(s.mux))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
