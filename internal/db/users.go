package db

import (
	"context"
	"time"

	"github.com/writeitupx/backend/internal/model"
)

func (db *Postgres) EnsureUserSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			avatar_url TEXT,
			is_google_user BOOLEAN NOT NULL DEFAULT FALSE,
			google_id TEXT UNIQUE,
			google_access_token TEXT,
			google_refresh_token TEXT,
			drive_folder_id TEXT,
			blocked BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_login_at TIMESTAMPTZ
		)
		`,
		`CREATE INDEX IF NOT EXISTS users_google_id_idx ON users(google_id)`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

const userColumns = `
	id, email, name, avatar_url, is_google_user, google_id,
	google_access_token, google_refresh_token, drive_folder_id,
	blocked, created_at, last_login_at
`

func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.AvatarURL,
		&user.IsGoogleUser,
		&user.GoogleID,
		&user.GoogleAccessToken,
		&user.GoogleRefreshToken,
		&user.DriveFolderID,
		&user.Blocked,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *Postgres) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, userID))
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, email))
}

// GetUserByGoogleIDOrEmail matches the handshake lookup: an account is the
// same account whether we know it by federation subject or by email.
func (db *Postgres) GetUserByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1 OR email = $2`
	return scanUser(db.Pool.QueryRow(ctx, query, googleID, email))
}

func (db *Postgres) CreateGoogleUser(ctx context.Context, email, name string, avatarURL *string, googleID, accessToken string, refreshToken *string) (*model.User, error) {
	query := `
		INSERT INTO users (
			email, name, avatar_url, is_google_user, google_id,
			google_access_token, google_refresh_token, created_at, last_login_at
		)
		VALUES ($1, $2, $3, TRUE, $4, $5, $6, NOW(), NOW())
		RETURNING ` + userColumns
	return scanUser(db.Pool.QueryRow(ctx, query, email, name, avatarURL, googleID, accessToken, refreshToken))
}

// UpdateGoogleCredentials rotates the stored delegated credentials after a
// successful handshake. A nil refreshToken keeps the previous one since
// Google only returns it on the first consent.
func (db *Postgres) UpdateGoogleCredentials(ctx context.Context, userID int64, googleID, accessToken string, refreshToken *string) error {
	query := `
		UPDATE users
		SET google_id = $2,
			is_google_user = TRUE,
			google_access_token = $3,
			google_refresh_token = COALESCE($4, google_refresh_token)
		WHERE id = $1
	`
	_, err := db.Pool.Exec(ctx, query, userID, googleID, accessToken, refreshToken)
	return err
}

func (db *Postgres) StampLastLogin(ctx context.Context, userID int64, at time.Time) error {
	query := `UPDATE users SET last_login_at = $2 WHERE id = $1`
	_, err := db.Pool.Exec(ctx, query, userID, at)
	return err
}

func (db *Postgres) UpdateDriveFolderID(ctx context.Context, userID int64, folderID string) error {
	query := `UPDATE users SET drive_folder_id = $2 WHERE id = $1`
	_, err := db.Pool.Exec(ctx, query, userID, folderID)
	return err
}
