package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/writeitupx/backend/internal/model"
)

func (db *Postgres) EnsureLetterSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS letters (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			content JSONB NOT NULL DEFAULT '{"type":"doc","content":[]}',
			collaborators JSONB NOT NULL DEFAULT '[]',
			drive_file_id TEXT,
			last_synced_with_drive TIMESTAMPTZ,
			version INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := db.Pool.Exec(ctx, query); err != nil {
		return err
	}
	_, err := db.Pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS letters_user_id_idx ON letters(user_id)`)
	return err
}

const letterColumns = `
	id, user_id, title, content, collaborators, drive_file_id,
	last_synced_with_drive, version, created_at, updated_at
`

func scanLetter(row interface{ Scan(dest ...any) error }) (*model.Letter, error) {
	var letter model.Letter
	err := row.Scan(
		&letter.ID,
		&letter.UserID,
		&letter.Title,
		&letter.Content,
		&letter.Collaborators,
		&letter.DriveFileID,
		&letter.LastSyncedWithDrive,
		&letter.Version,
		&letter.CreatedAt,
		&letter.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &letter, nil
}

// collaboratorProbe builds the jsonb containment argument for "userID is a
// collaborator", optionally pinned to an access level.
func collaboratorProbe(userID int64, accessLevel string) []byte {
	entry := map[string]any{"userId": userID}
	if accessLevel != "" {
		entry["accessLevel"] = accessLevel
	}
	probe, _ := json.Marshal([]map[string]any{entry})
	return probe
}

func (db *Postgres) ListLetters(ctx context.Context, userID int64) ([]model.Letter, error) {
	query := `
		SELECT ` + letterColumns + `
		FROM letters
		WHERE user_id = $1 OR collaborators @> $2
		ORDER BY updated_at DESC
	`
	rows, err := db.Pool.Query(ctx, query, userID, collaboratorProbe(userID, ""))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	letters := []model.Letter{}
	for rows.Next() {
		letter, err := scanLetter(rows)
		if err != nil {
			return nil, err
		}
		letters = append(letters, *letter)
	}
	return letters, rows.Err()
}

func (db *Postgres) GetLetter(ctx context.Context, letterID uuid.UUID, userID int64) (*model.Letter, error) {
	query := `
		SELECT ` + letterColumns + `
		FROM letters
		WHERE id = $1 AND (user_id = $2 OR collaborators @> $3)
	`
	return scanLetter(db.Pool.QueryRow(ctx, query, letterID, userID, collaboratorProbe(userID, "")))
}

// GetLetterForWrite scopes to the owner or a collaborator holding write
// access.
func (db *Postgres) GetLetterForWrite(ctx context.Context, letterID uuid.UUID, userID int64) (*model.Letter, error) {
	query := `
		SELECT ` + letterColumns + `
		FROM letters
		WHERE id = $1 AND (user_id = $2 OR collaborators @> $3)
	`
	return scanLetter(db.Pool.QueryRow(ctx, query, letterID, userID, collaboratorProbe(userID, model.AccessWrite)))
}

func (db *Postgres) GetOwnedLetter(ctx context.Context, letterID uuid.UUID, userID int64) (*model.Letter, error) {
	query := `SELECT ` + letterColumns + ` FROM letters WHERE id = $1 AND user_id = $2`
	return scanLetter(db.Pool.QueryRow(ctx, query, letterID, userID))
}

func (db *Postgres) CreateLetter(ctx context.Context, userID int64, title string, content json.RawMessage, collaborators []model.Collaborator) (*model.Letter, error) {
	if content == nil {
		content = json.RawMessage(`{"type":"doc","content":[]}`)
	}
	if collaborators == nil {
		collaborators = []model.Collaborator{}
	}
	query := `
		INSERT INTO letters (id, user_id, title, content, collaborators, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + letterColumns
	return scanLetter(db.Pool.QueryRow(ctx, query, uuid.New(), userID, title, content, collaborators))
}

// UpdateLetter bumps version and updated_at on every write, mirroring the
// save hook on the letter document.
func (db *Postgres) UpdateLetter(ctx context.Context, letterID uuid.UUID, title string, content json.RawMessage, collaborators []model.Collaborator) (*model.Letter, error) {
	query := `
		UPDATE letters
		SET title = COALESCE(NULLIF($2::text, ''), title),
			content = COALESCE($3, content),
			collaborators = COALESCE($4, collaborators),
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + letterColumns
	var contentArg any
	if content != nil {
		contentArg = content
	}
	var collabArg any
	if collaborators != nil {
		collabArg = collaborators
	}
	return scanLetter(db.Pool.QueryRow(ctx, query, letterID, title, contentArg, collabArg))
}

func (db *Postgres) UpdateLetterDriveSync(ctx context.Context, letterID uuid.UUID, driveFileID string, syncedAt time.Time) error {
	query := `
		UPDATE letters
		SET drive_file_id = $2, last_synced_with_drive = $3
		WHERE id = $1
	`
	_, err := db.Pool.Exec(ctx, query, letterID, driveFileID, syncedAt)
	return err
}

func (db *Postgres) DeleteLetter(ctx context.Context, letterID uuid.UUID, userID int64) error {
	query := `DELETE FROM letters WHERE id = $1 AND user_id = $2`
	_, err := db.Pool.Exec(ctx, query, letterID, userID)
	return err
}
