package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/wanderblog/apiserver/types"
)

const userColumns = `id, username, full_name, email, password_hash, avatar, role, posts,
		refresh_token, forgot_password_token, forgot_password_expiry, google_id, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.Role,
		pq.Array(&user.Posts),
		&user.RefreshToken,
		&user.ForgotPasswordToken,
		&user.ForgotPasswordExpiry,
		&user.GoogleID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByUsernameOrEmail is the combined duplicate lookup used at signup.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1 OR email = $2
		ORDER BY (username = $1) DESC
		LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, username, email))
}

// GetByLogin looks a user up by username or email, as entered at signin.
func (r *UserRepository) GetByLogin(ctx context.Context, usernameOrEmail string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = lower($1) OR email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, usernameOrEmail))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Posts == nil {
		user.Posts = []int64{}
	}

	const query = `
		INSERT INTO users (username, full_name, email, password_hash, avatar, role, posts,
			refresh_token, google_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.Avatar,
		user.Role,
		pq.Array(user.Posts),
		user.RefreshToken,
		user.GoogleID,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// SetRefreshToken overwrites the stored refresh token. An empty token
// clears the session.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id int64, token string) error {
	const query = `
		UPDATE users
		SET refresh_token = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, token, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResetToken stores the hashed password-reset token and its expiry.
func (r *UserRepository) SetResetToken(ctx context.Context, id int64, tokenHash string, expiry time.Time) error {
	const query = `
		UPDATE users
		SET forgot_password_token = $1,
			forgot_password_expiry = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, tokenHash, expiry, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPost appends a post ID to the user's owned-posts list.
func (r *UserRepository) AddPost(ctx context.Context, userID, postID int64) error {
	const query = `
		UPDATE users
		SET posts = array_append(posts, $1),
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, postID, time.Now(), userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RemovePost pulls a post ID from the user's owned-posts list.
func (r *UserRepository) RemovePost(ctx context.Context, userID, postID int64) error {
	const query = `
		UPDATE users
		SET posts = array_remove(posts, $1),
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, postID, time.Now(), userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
