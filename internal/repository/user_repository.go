package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"streamify/api/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const uniqueViolation = "23505"

const userColumns = `id, email, password_hash, full_name, avatar_url, bio,
	native_language, learning_language, location, is_onboarded, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts user. A concurrent insert with the same email loses to the
// unique index on lower(email) and surfaces as ErrEmailTaken; the preceding
// existence check in the service is a courtesy, not the safety net.
func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, email, password_hash, full_name, avatar_url, bio,
			native_language, learning_language, location, is_onboarded, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.AvatarURL,
		user.Bio,
		user.NativeLanguage,
		user.LearningLanguage,
		user.Location,
		user.IsOnboarded,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users WHERE lower(email) = lower($1)
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users WHERE id = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// UpdateProfile merges the non-nil fields of patch into the user row and
// returns the updated record.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (models.User, error) {
	const query = `
		UPDATE users SET
			full_name = COALESCE($2, full_name),
			bio = COALESCE($3, bio),
			native_language = COALESCE($4, native_language),
			learning_language = COALESCE($5, learning_language),
			location = COALESCE($6, location),
			is_onboarded = COALESCE($7, is_onboarded),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns + `
	`

	user, err := r.scanUser(r.pool.QueryRow(ctx, query,
		id,
		patch.FullName,
		patch.Bio,
		patch.NativeLanguage,
		patch.LearningLanguage,
		patch.Location,
		patch.IsOnboarded,
	))
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ListUpdatedSince returns users whose rows changed at or after cutoff. Used
// by the identity-mirror reconcile job.
func (r *UserRepository) ListUpdatedSince(ctx context.Context, cutoff time.Time) ([]models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE updated_at >= $1
		ORDER BY updated_at ASC
	`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.FullName,
			&user.AvatarURL,
			&user.Bio,
			&user.NativeLanguage,
			&user.LearningLanguage,
			&user.Location,
			&user.IsOnboarded,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.AvatarURL,
		&user.Bio,
		&user.NativeLanguage,
		&user.LearningLanguage,
		&user.Location,
		&user.IsOnboarded,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
