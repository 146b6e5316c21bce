package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/studentseats/ticket-marketplace/internal/model"
	"github.com/studentseats/ticket-marketplace/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,email_verified,verification_code,created_at,updated_at"

// Create inserts a new unverified user and returns its ID. The email is
// normalized to lowercase; the verification code is stored until VerifyEmail
// clears it.
func (r *UserRepo) Create(ctx context.Context, email, password, verificationCode string, cost int) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, email_verified, verification_code) VALUES (?,?,?,0,?)",
		id, email, hash, verificationCode)
	if err != nil {
		// MySQL duplicate key on the unique email index.
		if strings.Contains(err.Error(), "1062") {
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// VerifyEmail marks the account with the matching email and pending code as
// verified and clears the code. Returns the user ID, or ErrNotFound when no
// unverified account matches.
func (r *UserRepo) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var id string
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email=? AND verification_code=? AND email_verified=0 LIMIT 1",
		email, code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET email_verified=1, verification_code=NULL WHERE id=?", id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.EmailVerified,
		&u.VerificationCode, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}
