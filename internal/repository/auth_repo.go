package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"tank_supervisor/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure implementation of Authorization interface at compile time.
var _ Authorization = (*UserRepository)(nil)

const (
	insertUserSQL        = `INSERT INTO users (login, password_hash, is_admin) VALUES (?, ?, ?)`
	selectUserByLoginSQL = `SELECT id, login, password_hash, is_admin FROM users WHERE login = ?`
	selectUsersSQL       = `SELECT id, login, password_hash, is_admin FROM users ORDER BY id ASC`
	deleteUserSQL        = `DELETE FROM users WHERE login = ?`
)

// ErrUserNotFound is returned by Delete for an unknown login.
var ErrUserNotFound = errors.New("user not found")

// Create inserts a new user and returns its ID.
func (r *UserRepository) Create(login, passwordHash string, isAdmin bool) (int, error) {
	res, err := r.db.Exec(insertUserSQL, login, passwordHash, isAdmin)
	if err != nil {
		return 0, fmt.Errorf("insert user %q: %w", login, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for user %q: %w", login, err)
	}
	return int(lastID), nil
}

// GetByLogin fetches a user by login. Returns (nil, nil) if not found.
func (r *UserRepository) GetByLogin(login string) (*models.UserRecord, error) {
	var u models.UserRecord
	err := r.db.QueryRow(selectUserByLoginSQL, login).Scan(&u.ID, &u.Login, &u.PasswordHash, &u.IsAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %q: %w", login, err)
	}
	return &u, nil
}

// List returns every user in insertion order, which is the registry order.
func (r *UserRepository) List() ([]models.UserRecord, error) {
	rows, err := r.db.Query(selectUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var out []models.UserRecord
	for rows.Next() {
		var u models.UserRecord
		if err := rows.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

// Delete removes a user by login.
func (r *UserRepository) Delete(login string) error {
	res, err := r.db.Exec(deleteUserSQL, login)
	if err != nil {
		return fmt.Errorf("delete user %q: %w", login, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for user %q: %w", login, err)
	}
	if n == 0 {
		return fmt.Errorf("delete user %q: %w", login, ErrUserNotFound)
	}
	return nil
}
