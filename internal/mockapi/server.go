package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MrEthical07/goSession/jwt"
)

// User is an account known to the fake API. TOTPSecret and BackupCodes enable the
// second factor; backup codes are plain 8 digit strings and are single use.
type User struct {
	ID          string
	Username    string
	Password    string
	Email       string
	TOTPSecret  []byte
	BackupCodes []string

	lastCounter int64
}

func (u *User) twoFactor() bool {
	return len(u.TOTPSecret) > 0 || len(u.BackupCodes) > 0
}

// Profile is the /auth/me payload.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type tokenResponse struct {
	AccessToken       string `json:"accessToken,omitempty"`
	RefreshToken      string `json:"refreshToken,omitempty"`
	TwoFactorRequired bool   `json:"twoFactorRequired,omitempty"`
	ChallengeToken    string `json:"challengeToken,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Server holds users, pending challenges and live sessions in memory.
type Server struct {
	issuer *jwt.Issuer
	now    func() time.Time

	mu         sync.Mutex
	users      map[string]*User
	challenges map[string]string
	sessions   map[string]string

	requests atomic.Int64
}

// New returns a Server signing access tokens with key.
func New(key []byte, ttl time.Duration, users ...User) (*Server, error) {
	issuer, err := jwt.NewIssuer(key, ttl, "mockapi")
	if err != nil {
		return nil, err
	}
	s := &Server{
		issuer:     issuer,
		now:        time.Now,
		users:      make(map[string]*User, len(users)),
		challenges: make(map[string]string),
		sessions:   make(map[string]string),
	}
	for _, u := range users {
		s.AddUser(u)
	}
	return s, nil
}

// AddUser registers u, replacing any user with the same name.
func (s *Server) AddUser(u User) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.BackupCodes = append([]string(nil), u.BackupCodes...)
	u.TOTPSecret = append([]byte(nil), u.TOTPSecret...)
	u.lastCounter = 0
	s.mu.Lock()
	s.users[u.Username] = &u
	s.mu.Unlock()
}

// RevokeAll ends every session, so the next authenticated call answers 401.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	clear(s.sessions)
	s.mu.Unlock()
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Requests returns the number of requests served.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// Handler returns the chi router serving the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.count)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/2fa/verify", s.handleVerify)

		r.Group(func(r chi.Router) {
			r.Use(s.guard)
			r.Get("/me", s.handleMe)
		})
	})
	return r
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		next.ServeHTTP(w, r)
	})
}

/*
====================================
HANDLERS
====================================
*/

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{"invalid request body"})
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.Username]
	if !ok || u.Password != req.Password {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, errorResponse{"invalid username or password"})
		return
	}
	if u.twoFactor() {
		challenge := uuid.NewString()
		s.challenges[challenge] = u.Username
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, tokenResponse{TwoFactorRequired: true, ChallengeToken: challenge})
		return
	}
	s.mu.Unlock()

	s.writeTokens(w, u)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	challenge, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{"missing challenge"})
		return
	}

	var req struct {
		Code         string `json:"code"`
		IsBackupCode bool   `json:"isBackupCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{"invalid request body"})
		return
	}

	s.mu.Lock()
	name, ok := s.challenges[challenge]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, errorResponse{"challenge expired, log in again"})
		return
	}
	u := s.users[name]
	if !u.consume(req.Code, req.IsBackupCode, s.now()) {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, errorResponse{"invalid code"})
		return
	}
	delete(s.challenges, challenge)
	s.mu.Unlock()

	s.writeTokens(w, u)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r.Context())
	writeJSON(w, http.StatusOK, Profile{ID: u.ID, Username: u.Username, Email: u.Email})
}

func (u *User) consume(code string, backup bool, now time.Time) bool {
	if !backup {
		counter, ok := verifyTOTP(u.TOTPSecret, code, now, u.lastCounter)
		if ok {
			u.lastCounter = counter
		}
		return ok
	}
	for i, c := range u.BackupCodes {
		if c == code {
			u.BackupCodes = append(u.BackupCodes[:i], u.BackupCodes[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Server) writeTokens(w http.ResponseWriter, u *User) {
	sid := uuid.NewString()
	access, err := s.issuer.Issue(u.ID, sid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{"token issue failed"})
		return
	}

	s.mu.Lock()
	s.sessions[sid] = u.Username
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
	})
}

/*
====================================
GUARD
====================================
*/

type userContextKey struct{}

func userFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userContextKey{}).(*User)
	return u
}

func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{"unauthorized"})
			return
		}

		claims, err := s.issuer.Verify(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{"unauthorized"})
			return
		}

		s.mu.Lock()
		name, live := s.sessions[claims.SID]
		u := s.users[name]
		s.mu.Unlock()
		if !live || u == nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{"session expired"})
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
