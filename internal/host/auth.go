package host

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Session lifetime for dashboard sign-ins.
const sessionTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials is returned for unknown users or bad passwords.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrUserExists is returned when registering a taken username.
	ErrUserExists = errors.New("auth: user already exists")
)

type user struct {
	id           string
	username     string
	passwordHash []byte
	createdAt    time.Time
}

type session struct {
	token     string
	userID    string
	expiresAt time.Time
}

// AuthService manages dashboard sign-in. The currently signed-in user is
// what guest auth-check requests resolve against.
type AuthService struct {
	logger *zap.Logger

	mu       sync.Mutex
	users    map[string]*user
	sessions map[string]*session
	current  string // token of the active dashboard session
}

// NewAuthService creates an empty auth service.
func NewAuthService(logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		logger:   logger,
		users:    make(map[string]*user),
		sessions: make(map[string]*session),
	}
}

// AddUser registers a dashboard user with a bcrypt-hashed password.
func (a *AuthService) AddUser(username, password string) error {
	if username == "" || password == "" {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.users[username]; ok {
		return ErrUserExists
	}
	a.users[username] = &user{
		id:           uuid.New().String(),
		username:     username,
		passwordHash: hash,
		createdAt:    time.Now(),
	}
	return nil
}

// Login verifies credentials and opens the active dashboard session,
// returning its token.
func (a *AuthService) Login(username, password string) (string, error) {
	a.mu.Lock()
	u, ok := a.users[username]
	a.mu.Unlock()
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := uuid.New().String()
	a.mu.Lock()
	a.sessions[token] = &session{
		token:     token,
		userID:    u.id,
		expiresAt: time.Now().Add(sessionTTL),
	}
	a.current = token
	a.mu.Unlock()

	a.logger.Info("dashboard sign-in", zap.String("username", username))
	return token, nil
}

// Logout closes a session. Closing the active session signs the dashboard
// out for auth-check purposes.
func (a *AuthService) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	if a.current == token {
		a.current = ""
	}
	a.mu.Unlock()
}

// Verify returns the user object for a valid, unexpired session token.
func (a *AuthService) Verify(token string) (map[string]any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userForLocked(token)
}

// CurrentUser returns the user object of the active dashboard session, or
// nil when nobody is signed in. A nil *AuthService is safe and means no
// auth backing at all.
func (a *AuthService) CurrentUser() map[string]any {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.userForLocked(a.current)
	if !ok {
		return nil
	}
	return u
}

func (a *AuthService) userForLocked(token string) (map[string]any, bool) {
	s, ok := a.sessions[token]
	if !ok {
		return nil, false
	}
	if time.Now().After(s.expiresAt) {
		delete(a.sessions, token)
		if a.current == token {
			a.current = ""
		}
		return nil, false
	}
	for _, u := range a.users {
		if u.id == s.userID {
			return map[string]any{
				"id":       u.id,
				"username": u.username,
			}, true
		}
	}
	return nil, false
}
