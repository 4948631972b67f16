package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hourbook/volunteer-api/internal/core/domain"
)

const userColumns = `id, auth_provider_id, email, name, role, school_id, oen, created_at, updated_at`

// Constraint names from migrations/00001_init.sql.
const (
	usersEmailKey          = "users_email_key"
	usersAuthProviderIDKey = "users_auth_provider_id_key"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(
		&u.ID,
		&u.AuthProviderID,
		&u.Email,
		&u.Name,
		&role,
		&u.SchoolID,
		&u.OEN,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+userColumns,
		user.ID, user.AuthProviderID, user.Email, user.Name, string(user.Role),
		user.SchoolID, user.OEN, user.CreatedAt, user.UpdatedAt,
	)
	created, err := scanUser(row)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			switch constraint {
			case usersEmailKey:
				return nil, domain.ErrEmailTaken
			case usersAuthProviderIDKey:
				return nil, domain.ErrAuthProviderIDTaken
			}
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *UserRepository) FindByAuthProviderID(ctx context.Context, authProviderID string) (*domain.User, error) {
	return r.findOne(ctx, "auth_provider_id", authProviderID)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

// findOne looks a user up by a unique column. column is never caller input.
func (r *UserRepository) findOne(ctx context.Context, column, value string) (*domain.User, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	u, err := scanUser(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by %s: %w", column, err)
	}
	return u, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, oen, schoolID string) (*domain.User, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET oen = $2, school_id = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+userColumns,
		id, oen, schoolID, time.Now().UTC(),
	)
	u, err := scanUser(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}
