package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/writeitupx/backend/internal/db"
	"github.com/writeitupx/backend/internal/model"
)

var (
	ErrInvalidLetter  = errors.New("invalid letter")
	ErrLetterNotFound = errors.New("letter not found")
)

type letterStore interface {
	ListLetters(ctx context.Context, userID int64) ([]model.Letter, error)
	GetLetter(ctx context.Context, letterID uuid.UUID, userID int64) (*model.Letter, error)
	GetLetterForWrite(ctx context.Context, letterID uuid.UUID, userID int64) (*model.Letter, error)
	GetOwnedLetter(ctx context.Context, letterID uuid.UUID, userID int64) (*model.Letter, error)
	CreateLetter(ctx context.Context, userID int64, title string, content json.RawMessage, collaborators []model.Collaborator) (*model.Letter, error)
	UpdateLetter(ctx context.Context, letterID uuid.UUID, title string, content json.RawMessage, collaborators []model.Collaborator) (*model.Letter, error)
	UpdateLetterDriveSync(ctx context.Context, letterID uuid.UUID, driveFileID string, syncedAt time.Time) error
	DeleteLetter(ctx context.Context, letterID uuid.UUID, userID int64) error
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	UpdateDriveFolderID(ctx context.Context, userID int64, folderID string) error
}

type driveExporter interface {
	EnsureLettersFolder(ctx context.Context, user *model.User) (string, error)
	UploadLetter(ctx context.Context, user *model.User, letter *model.Letter, folderID, content string) (string, error)
	DeleteFile(ctx context.Context, user *model.User, fileID string) error
}

type LetterService struct {
	repo  letterStore
	drive driveExporter
}

func NewLetterService(repo letterStore, drive driveExporter) *LetterService {
	return &LetterService{repo: repo, drive: drive}
}

func (s *LetterService) List(ctx context.Context, userID int64) ([]model.Letter, error) {
	return s.repo.ListLetters(ctx, userID)
}

func (s *LetterService) Get(ctx context.Context, letterID uuid.UUID, userID int64) (*model.Letter, error) {
	letter, err := s.repo.GetLetter(ctx, letterID, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrLetterNotFound
		}
		return nil, err
	}
	return letter, nil
}

func (s *LetterService) Create(ctx context.Context, userID int64, req model.LetterCreateRequest) (*model.Letter, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrInvalidLetter
	}
	return s.repo.CreateLetter(ctx, userID, title, req.Content, req.Collaborators)
}

// Update lets the owner or a write collaborator edit title and content.
// Only the owner may change the collaborator list; others' attempts are
// silently dropped rather than rejected.
func (s *LetterService) Update(ctx context.Context, letterID uuid.UUID, userID int64, req model.LetterUpdateRequest) (*model.Letter, error) {
	letter, err := s.repo.GetLetterForWrite(ctx, letterID, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrLetterNotFound
		}
		return nil, err
	}

	collaborators := req.Collaborators
	if letter.UserID != userID {
		collaborators = nil
	}

	return s.repo.UpdateLetter(ctx, letterID, strings.TrimSpace(req.Title), req.Content, collaborators)
}

// Delete removes an owned letter, first attempting to remove its exported
// Drive file. A Drive failure does not block the local delete.
func (s *LetterService) Delete(ctx context.Context, letterID uuid.UUID, userID int64) error {
	letter, err := s.repo.GetOwnedLetter(ctx, letterID, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrLetterNotFound
		}
		return err
	}

	if letter.DriveFileID != nil && *letter.DriveFileID != "" {
		user, err := s.repo.GetUserByID(ctx, userID)
		if err == nil {
			if err := s.drive.DeleteFile(ctx, user, *letter.DriveFileID); err != nil {
				log.Printf("Failed to delete drive file %s for letter %s: %v", *letter.DriveFileID, letterID, err)
			}
		}
	}

	return s.repo.DeleteLetter(ctx, letterID, userID)
}

// SaveToDrive exports the letter as plain text into the user's Letters
// folder, creating the folder and file on first export.
func (s *LetterService) SaveToDrive(ctx context.Context, letterID uuid.UUID, userID int64, content string) (string, error) {
	letter, err := s.repo.GetOwnedLetter(ctx, letterID, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return "", ErrLetterNotFound
		}
		return "", err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	folderID, err := s.drive.EnsureLettersFolder(ctx, user)
	if err != nil {
		return "", err
	}
	if user.DriveFolderID == nil || *user.DriveFolderID != folderID {
		if err := s.repo.UpdateDriveFolderID(ctx, userID, folderID); err != nil {
			return "", err
		}
	}

	fileID, err := s.drive.UploadLetter(ctx, user, letter, folderID, content)
	if err != nil {
		return "", err
	}

	if err := s.repo.UpdateLetterDriveSync(ctx, letterID, fileID, time.Now()); err != nil {
		return "", err
	}
	return fileID, nil
}
