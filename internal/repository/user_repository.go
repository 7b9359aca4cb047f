package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/equipnfc/equipment-manager/internal/model"
)

// UserRepo encapsulates all database queries against the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,email,password_hash,first_name,last_name,role,is_active,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// Create inserts a user and populates its ID. The caller supplies an
// already-hashed password; plaintext never reaches this layer. Email
// is normalized to lowercase so uniqueness is case-insensitive.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, first_name, last_name, role) VALUES (?,?,?,?,?)",
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role)
	if err != nil {
		// MySQL 1062 = duplicate entry for a unique key.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)

	const q = "SELECT " + userCols + " FROM users WHERE id=? LIMIT 1"
	created, err := scanUser(r.DB.QueryRowContext(ctx, q, u.ID))
	if err != nil {
		return err
	}
	*u = created
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = "SELECT " + userCols + " FROM users WHERE email=? LIMIT 1"
	return scanUser(r.DB.QueryRowContext(ctx, q, email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	const q = "SELECT " + userCols + " FROM users WHERE id=? LIMIT 1"
	return scanUser(r.DB.QueryRowContext(ctx, q, id))
}

// EmailTaken reports whether another user (excluding excludeID)
// already owns the given email. Used by profile updates, where the
// current owner must not conflict with itself.
func (r *UserRepo) EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=? AND id<>?", email, excludeID).Scan(&n)
	return n > 0, err
}

// UpdateProfile applies the provided fields; nil pointers leave the
// column untouched. Email values are lowercased before writing.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, firstName, lastName, email *string) (model.User, error) {
	set := []string{}
	args := []any{}
	if firstName != nil {
		set = append(set, "first_name=?")
		args = append(args, *firstName)
	}
	if lastName != nil {
		set = append(set, "last_name=?")
		args = append(args, *lastName)
	}
	if email != nil {
		set = append(set, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*email)))
	}
	if len(set) > 0 {
		args = append(args, id)
		q := "UPDATE users SET " + strings.Join(set, ", ") + ", updated_at=CURRENT_TIMESTAMP WHERE id=?"
		res, err := r.DB.ExecContext(ctx, q, args...)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "1062") {
				return model.User{}, ErrEmailExists
			}
			return model.User{}, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// RowsAffected is 0 both for a missing row and for a
			// no-op update, so confirm existence below.
			if _, err := r.GetByID(ctx, id); err != nil {
				return model.User{}, err
			}
		}
	}
	return r.GetByID(ctx, id)
}

// UpdatePassword stores a new password hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ProfileCounts returns how many equipments the user created and how
// many audit events the user authored. Joined into the profile
// response.
func (r *UserRepo) ProfileCounts(ctx context.Context, id uint64) (equipments, events int64, err error) {
	if err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM equipments WHERE created_by=?", id).Scan(&equipments); err != nil {
		return 0, 0, err
	}
	if err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM equipment_events WHERE user_id=?", id).Scan(&events); err != nil {
		return 0, 0, err
	}
	return equipments, events, nil
}
