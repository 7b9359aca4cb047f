package model

import "time"

// Role values stored in users.role. ADMIN accounts are reserved for
// administrative tooling; regular accounts default to USER at
// registration.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. Handlers never serialize this struct directly; response
// types exclude the password hash.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address, always stored lowercase.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – given name.
//  LastName     – family name.
//  Role         – ADMIN or USER.
//  IsActive     – whether the account is active; inactive accounts
//                 cannot authenticate even with a valid token.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// UserSummary is the subset of user fields joined into equipment and
// event responses. It never carries credentials. Repositories fill it
// directly from their join scans.
type UserSummary struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}
