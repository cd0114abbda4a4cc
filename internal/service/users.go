package service

import (
	"errors"
	"fmt"

	"tank_supervisor/internal/models"
	"tank_supervisor/internal/registry"
)

var (
	ErrUserExists  = errors.New("user already exists")
	ErrInvalidUser = fmt.Errorf("invalid user: %w", registry.ErrInvalidLength)
)

// UsersService is the admin view of the registry.
type UsersService struct {
	users *registry.Registry
}

func NewUsersService(users *registry.Registry) *UsersService {
	return &UsersService{users: users}
}

func (s *UsersService) ListUsers() []models.UserInfo {
	return s.users.ListAll()
}

// AddUser registers a new login. Duplicates and out-of-range lengths are
// rejected; any other refusal comes from the user store.
func (s *UsersService) AddUser(login, password string, isAdmin bool) error {
	if _, ok := s.users.Find(login); ok {
		return ErrUserExists
	}
	if !validField(login) || !validField(password) {
		return ErrInvalidUser
	}
	if !s.users.Add(login, password, isAdmin) {
		return fmt.Errorf("add user %q: rejected by registry", login)
	}
	return nil
}

// RemoveUser deletes a login and ends its session, if any.
func (s *UsersService) RemoveUser(login string) error {
	if _, ok := s.users.Find(login); !ok {
		return ErrUserNotFound
	}
	if !s.users.Remove(login) {
		return fmt.Errorf("remove user %q: rejected by registry", login)
	}
	return nil
}

func validField(s string) bool {
	return len(s) >= registry.MinFieldLen && len(s) <= registry.MaxFieldLen
}
