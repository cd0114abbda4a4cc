// Package registry holds the users allowed to open supervisory sessions.
//
// Reads (Find, ListAll, Users, Authenticate, BindIfPresent) take the read lock and writes
// (Add, Remove) take the write lock, so the session loop and the admin
// surfaces can use the registry concurrently. Each user's connection slot
// has its own lock.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"tank_supervisor/internal/logger"
	"tank_supervisor/internal/models"
	"tank_supervisor/internal/netsock"

	"golang.org/x/crypto/bcrypt"
)

// Credential length bounds, inclusive.
const (
	MinFieldLen = 6
	MaxFieldLen = 12
)

var (
	ErrInvalidLength    = errors.New("login and password must be 6 to 12 characters")
	ErrUnknownUser      = errors.New("unknown user")
	ErrBadPassword      = errors.New("wrong password")
	ErrAlreadyConnected = errors.New("user already connected")
)

// Store persists users. The registry keeps working without one.
type Store interface {
	List() ([]models.UserRecord, error)
	Create(login, passwordHash string, isAdmin bool) (int, error)
	Delete(login string) error
}

// Registry is an ordered, login-unique collection of users.
type Registry struct {
	mu    sync.RWMutex
	users []*User

	store    Store
	hashCost int
	log      *logger.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithStore persists every Add/Remove and enables Load.
func WithStore(s Store) Option { return func(r *Registry) { r.store = s } }

// WithHashCost overrides the bcrypt cost (tests use bcrypt.MinCost).
func WithHashCost(cost int) Option { return func(r *Registry) { r.hashCost = cost } }

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *logger.Logger) Option { return func(r *Registry) { r.log = l } }

func New(opts ...Option) *Registry {
	r := &Registry{hashCost: bcrypt.DefaultCost, log: logger.Nop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

func validLen(s string) bool {
	return len(s) >= MinFieldLen && len(s) <= MaxFieldLen
}

// Load replaces the in-memory users with the store's content.
func (r *Registry) Load() error {
	if r.store == nil {
		return nil
	}
	recs, err := r.store.List()
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	users := make([]*User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, &User{login: rec.Login, passwordHash: []byte(rec.PasswordHash), isAdmin: rec.IsAdmin})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		u.Close()
	}
	r.users = users
	return nil
}

// Add registers a user. It returns false, leaving the registry untouched,
// when a length is out of bounds, the login is taken or the store fails.
func (r *Registry) Add(login, password string, isAdmin bool) bool {
	if !validLen(login) || !validLen(password) {
		return false
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.hashCost)
	if err != nil {
		r.log.Errorw("registry_hash_failed", "login", login, "err", err)
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexLocked(login) >= 0 {
		return false
	}
	if r.store != nil {
		if _, err := r.store.Create(login, string(hash), isAdmin); err != nil {
			r.log.Errorw("registry_persist_failed", "login", login, "err", err)
			return false
		}
	}
	r.users = append(r.users, &User{login: login, passwordHash: hash, isAdmin: isAdmin})
	return true
}

// Remove deletes a user and closes its connection. It returns false when
// the login is absent or the store fails.
func (r *Registry) Remove(login string) bool {
	r.mu.Lock()
	i := r.indexLocked(login)
	if i < 0 {
		r.mu.Unlock()
		return false
	}
	if r.store != nil {
		if err := r.store.Delete(login); err != nil {
			r.mu.Unlock()
			r.log.Errorw("registry_delete_failed", "login", login, "err", err)
			return false
		}
	}
	u := r.users[i]
	r.users = append(r.users[:i], r.users[i+1:]...)
	r.mu.Unlock()

	u.Close()
	return true
}

func (r *Registry) indexLocked(login string) int {
	for i, u := range r.users {
		if u.login == login {
			return i
		}
	}
	return -1
}

// Find returns the user with the given login.
func (r *Registry) Find(login string) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(login); i >= 0 {
		return r.users[i], true
	}
	return nil, false
}

// ListAll describes every user in registry order.
func (r *Registry) ListAll() []models.UserInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.UserInfo, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, models.UserInfo{Login: u.login, IsAdmin: u.isAdmin, Connected: u.Connected()})
	}
	return out
}

// Users returns a snapshot of the users in registry order. Users removed
// after the snapshot was taken have their connection closed, so callers
// must re-check Connected before using one.
func (r *Registry) Users() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*User, len(r.users))
	copy(out, r.users)
	return out
}

// Authenticate validates a LOGIN attempt.
func (r *Registry) Authenticate(login, password string) (*User, error) {
	if !validLen(login) || !validLen(password) {
		return nil, ErrInvalidLength
	}
	u, ok := r.Find(login)
	if !ok {
		return nil, ErrUnknownUser
	}
	if !u.checkPassword(password) {
		return nil, ErrBadPassword
	}
	if u.Connected() {
		return nil, ErrAlreadyConnected
	}
	return u, nil
}

// BindIfPresent binds c to u only while u is still registered. Remove and
// Load close connections after taking the write lock, so a user removed
// during a handshake never keeps a live socket.
func (r *Registry) BindIfPresent(u *User, c *netsock.Conn) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexLocked(u.login)
	if i < 0 || r.users[i] != u {
		return false
	}
	u.Bind(c)
	return true
}

// VerifyAdmin checks credentials for the admin surfaces; it does not care
// about the user's session state.
func (r *Registry) VerifyAdmin(login, password string) (*User, error) {
	u, ok := r.Find(login)
	if !ok {
		return nil, ErrUnknownUser
	}
	if !u.checkPassword(password) {
		return nil, ErrBadPassword
	}
	return u, nil
}

// CloseAll closes every bound connection.
func (r *Registry) CloseAll() {
	for _, u := range r.Users() {
		u.Close()
	}
}
