package models

// UserRecord is the persisted form of a registry user.
type UserRecord struct {
	ID           int    `json:"id"`
	Login        string `json:"login"`
	PasswordHash string `json:"-"` // don’t expose hash
	IsAdmin      bool   `json:"is_admin"`
}

// UserInfo is what listings expose about a user.
type UserInfo struct {
	Login     string `json:"login"`
	IsAdmin   bool   `json:"is_admin"`
	Connected bool   `json:"connected"`
}
