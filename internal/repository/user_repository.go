package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/resort-reservation/internal/model"
	"github.com/iliyamo/resort-reservation/internal/utils"
)

// ErrUserNotFound is returned when a guest lookup fails.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when the email is already registered.
var ErrEmailExists = errors.New("email already exists")

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, name, last_name, second_last_name, email, password_hash, status, registration_date`

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u      model.User
		second sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Name, &u.LastName, &second, &u.Email, &u.PasswordHash, &u.Status, &u.RegistrationDate); err != nil {
		return nil, err
	}
	u.SecondLastName = nullString(second)
	return &u, nil
}

// Create hashes the password, inserts the guest and fills in its ID,
// status and registration date.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, last_name, second_last_name, email, password_hash, status) VALUES (?,?,?,?,?,?)",
		u.Name, u.LastName, u.SecondLastName, u.Email, hash, model.UserActive)
	if err != nil {
		if errors.Is(TranslateError(err), ErrDuplicate) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = *created
	return nil
}

// GetByID fetches a guest by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// List returns every guest ordered by last name.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY last_name, name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// UpdateStatus activates or disables a guest account.
func (r *UserRepo) UpdateStatus(ctx context.Context, id uint64, status model.UserStatus) error {
	if _, err := r.DB.ExecContext(ctx, "UPDATE users SET status=? WHERE id=?", status, id); err != nil {
		return err
	}
	_, err := r.GetByID(ctx, id)
	return err
}

// ExistsTx reports whether a guest with the given id exists.
func (r *UserRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	var ok bool
	err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id=?)", id).Scan(&ok)
	return ok, TranslateError(err)
}
