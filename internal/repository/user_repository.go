package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-portal-api/internal/mapping"
	"github.com/noah-isme/institute-portal-api/internal/models"
)

const userColumns = `id, username, email, password_hash, full_name, phone, role, registration_no, active, last_login, created_at, updated_at`

// UserUsernameConstraint is the unique index on usernames.
const UserUsernameConstraint = "users_table_username_key"

// UserRepository provides database access for portal accounts and their refresh sessions.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns a user by username (case-insensitive).
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(username) = LOWER($1)", username)
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByRegistrationNo returns the student account linked to a registration number.
func (r *UserRepository) FindByRegistrationNo(ctx context.Context, registrationNo string) (*models.User, error) {
	return r.findOne(ctx, "registration_no = $1", registrationNo)
}

func (r *UserRepository) findOne(ctx context.Context, predicate, value string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users_table WHERE " + predicate + " LIMIT 1"
	var rec mapping.UserRecord
	if err := r.db.GetContext(ctx, &rec, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user := mapping.ToUser(rec)
	return &user, nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users_table SET last_login = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users_table SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var conds conditions
	if filter.Role != nil {
		conds.add("role = $%[1]d", *filter.Role)
	}
	if filter.Active != nil {
		conds.add("active = $%[1]d", *filter.Active)
	}
	if filter.Search != "" {
		conds.add("(LOWER(username) LIKE $%[1]d OR LOWER(full_name) LIKE $%[1]d OR LOWER(email) LIKE $%[1]d)", likePattern(filter.Search))
	}

	order := orderBy(filter.SortBy, filter.SortOrder, map[string]string{
		"username":   "username",
		"full_name":  "full_name",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}, "created_at")
	_, size, offset := paginate(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s FROM users_table%s ORDER BY %s LIMIT %d OFFSET %d", userColumns, conds.where(), order, size, offset)
	var records []mapping.UserRecord
	if err := r.db.SelectContext(ctx, &records, listQuery, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users_table"+conds.where(), conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return mapping.ToUsers(records), total, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if !user.Role.Valid() {
		user.Role = models.RoleStudent
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users_table (` + userColumns + `)
	VALUES (:id, :username, :email, :password_hash, :full_name, :phone, :role, :registration_no, :active, :last_login, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mapping.FromUser(*user)); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update updates mutable profile fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users_table SET email = :email, full_name = :full_name, phone = :phone, role = :role,
	registration_no = :registration_no, active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, mapping.FromUser(*user))
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return affectedOrNoRows(res)
}

// Deactivate marks the user inactive and revokes their sessions.
func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE users_table SET active = FALSE, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if err := affectedOrNoRows(res); err != nil {
		return err
	}
	return r.RevokeUserRefreshTokens(ctx, id)
}

// CreateRefreshToken persists a refresh token entry.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at, revoked, revoked_at, ip_address, user_agent)
	VALUES (:id, :user_id, :token_hash, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh session by token digest.
func (r *UserRepository) FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token_hash, expires_at, created_at, revoked, revoked_at, ip_address, user_agent
	FROM refresh_tokens WHERE token_hash = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, tokenHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token as revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes all refresh tokens for a user.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}
