package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/writeitupx/backend/internal/model"
)

type fakeLetterStore struct {
	letters map[uuid.UUID]*model.Letter
	owner   *model.User

	deletedLetter    uuid.UUID
	syncedFileID     string
	savedFolderID    string
	updatedCollabSet bool
	lastCollabs      []model.Collaborator
}

func newFakeLetterStore() *fakeLetterStore {
	folder := ""
	return &fakeLetterStore{
		letters: map[uuid.UUID]*model.Letter{},
		owner:   &model.User{ID: 1, Email: "owner@example.com", DriveFolderID: &folder},
	}
}

func (f *fakeLetterStore) add(ownerID int64, collaborators []model.Collaborator) *model.Letter {
	letter := &model.Letter{
		ID:            uuid.New(),
		UserID:        ownerID,
		Title:         "Draft",
		Content:       json.RawMessage(`{"type":"doc","content":[]}`),
		Collaborators: collaborators,
		Version:       1,
	}
	f.letters[letter.ID] = letter
	return letter
}

func (f *fakeLetterStore) hasAccess(letter *model.Letter, userID int64, level string) bool {
	if letter.UserID == userID {
		return true
	}
	for _, collab := range letter.Collaborators {
		if collab.UserID == userID && (level == model.AccessRead || collab.AccessLevel == level) {
			return true
		}
	}
	return false
}

func (f *fakeLetterStore) ListLetters(ctx context.Context, userID int64) ([]model.Letter, error) {
	var out []model.Letter
	for _, letter := range f.letters {
		if f.hasAccess(letter, userID, model.AccessRead) {
			out = append(out, *letter)
		}
	}
	return out, nil
}

func (f *fakeLetterStore) GetLetter(ctx context.Context, letterID uuid.UUID, userID int64) (*model.Letter, error) {
	if letter, ok := f.letters[letterID]; ok && f.hasAccess(letter, userID, model.AccessRead) {
		return letter, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLetterStore) GetLetterForWrite(ctx context.Context, letterID uuid.UUID, userID int64) (*model.Letter, error) {
	if letter, ok := f.letters[letterID]; ok && f.hasAccess(letter, userID, model.AccessWrite) {
		return letter, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLetterStore) GetOwnedLetter(ctx context.Context, letterID uuid.UUID, userID int64) (*model.Letter, error) {
	if letter, ok := f.letters[letterID]; ok && letter.UserID == userID {
		return letter, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLetterStore) CreateLetter(ctx context.Context, userID int64, title string, content json.RawMessage, collaborators []model.Collaborator) (*model.Letter, error) {
	letter := f.add(userID, collaborators)
	letter.Title = title
	if content != nil {
		letter.Content = content
	}
	return letter, nil
}

func (f *fakeLetterStore) UpdateLetter(ctx context.Context, letterID uuid.UUID, title string, content json.RawMessage, collaborators []model.Collaborator) (*model.Letter, error) {
	letter, ok := f.letters[letterID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if title != "" {
		letter.Title = title
	}
	if content != nil {
		letter.Content = content
	}
	f.updatedCollabSet = collaborators != nil
	f.lastCollabs = collaborators
	if collaborators != nil {
		letter.Collaborators = collaborators
	}
	letter.Version++
	return letter, nil
}

func (f *fakeLetterStore) UpdateLetterDriveSync(ctx context.Context, letterID uuid.UUID, driveFileID string, syncedAt time.Time) error {
	f.syncedFileID = driveFileID
	return nil
}

func (f *fakeLetterStore) DeleteLetter(ctx context.Context, letterID uuid.UUID, userID int64) error {
	delete(f.letters, letterID)
	f.deletedLetter = letterID
	return nil
}

func (f *fakeLetterStore) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	if f.owner.ID == userID {
		return f.owner, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLetterStore) UpdateDriveFolderID(ctx context.Context, userID int64, folderID string) error {
	f.savedFolderID = folderID
	return nil
}

type fakeDrive struct {
	folderID     string
	fileID       string
	uploadErr    error
	deletedFiles []string
}

func (d *fakeDrive) EnsureLettersFolder(ctx context.Context, user *model.User) (string, error) {
	return d.folderID, nil
}

func (d *fakeDrive) UploadLetter(ctx context.Context, user *model.User, letter *model.Letter, folderID, content string) (string, error) {
	if d.uploadErr != nil {
		return "", d.uploadErr
	}
	return d.fileID, nil
}

func (d *fakeDrive) DeleteFile(ctx context.Context, user *model.User, fileID string) error {
	d.deletedFiles = append(d.deletedFiles, fileID)
	return nil
}

func TestCreateLetterRequiresTitle(t *testing.T) {
	svc := NewLetterService(newFakeLetterStore(), &fakeDrive{})
	if _, err := svc.Create(context.Background(), 1, model.LetterCreateRequest{Title: "   "}); !errors.Is(err, ErrInvalidLetter) {
		t.Fatalf("expected ErrInvalidLetter, got %v", err)
	}
}

func TestGetLetterScoping(t *testing.T) {
	store := newFakeLetterStore()
	letter := store.add(1, []model.Collaborator{{UserID: 2, AccessLevel: model.AccessRead}})
	svc := NewLetterService(store, &fakeDrive{})

	if _, err := svc.Get(context.Background(), letter.ID, 2); err != nil {
		t.Fatalf("collaborator read denied: %v", err)
	}
	if _, err := svc.Get(context.Background(), letter.ID, 3); !errors.Is(err, ErrLetterNotFound) {
		t.Fatalf("expected ErrLetterNotFound for stranger, got %v", err)
	}
}

func TestUpdateByCollaboratorDropsCollaboratorChanges(t *testing.T) {
	store := newFakeLetterStore()
	letter := store.add(1, []model.Collaborator{{UserID: 2, AccessLevel: model.AccessWrite}})
	svc := NewLetterService(store, &fakeDrive{})

	req := model.LetterUpdateRequest{
		Title:         "Edited",
		Collaborators: []model.Collaborator{{UserID: 2, AccessLevel: model.AccessWrite}, {UserID: 3, AccessLevel: model.AccessWrite}},
	}
	if _, err := svc.Update(context.Background(), letter.ID, 2, req); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if store.updatedCollabSet {
		t.Fatalf("non-owner collaborator change was not dropped")
	}

	// the owner's collaborator change goes through
	if _, err := svc.Update(context.Background(), letter.ID, 1, req); err != nil {
		t.Fatalf("owner Update: %v", err)
	}
	if !store.updatedCollabSet || len(store.lastCollabs) != 2 {
		t.Fatalf("owner collaborator change dropped: %+v", store.lastCollabs)
	}
}

func TestUpdateDeniedForReadCollaborator(t *testing.T) {
	store := newFakeLetterStore()
	letter := store.add(1, []model.Collaborator{{UserID: 2, AccessLevel: model.AccessRead}})
	svc := NewLetterService(store, &fakeDrive{})

	if _, err := svc.Update(context.Background(), letter.ID, 2, model.LetterUpdateRequest{Title: "Edited"}); !errors.Is(err, ErrLetterNotFound) {
		t.Fatalf("expected ErrLetterNotFound, got %v", err)
	}
}

func TestDeleteRemovesDriveFile(t *testing.T) {
	store := newFakeLetterStore()
	letter := store.add(1, nil)
	fileID := "drive-file-1"
	letter.DriveFileID = &fileID
	drive := &fakeDrive{}
	svc := NewLetterService(store, drive)

	if err := svc.Delete(context.Background(), letter.ID, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.deletedLetter != letter.ID {
		t.Fatalf("letter not deleted")
	}
	if len(drive.deletedFiles) != 1 || drive.deletedFiles[0] != fileID {
		t.Fatalf("drive file not removed: %v", drive.deletedFiles)
	}
}

func TestDeleteDeniedForCollaborator(t *testing.T) {
	store := newFakeLetterStore()
	letter := store.add(1, []model.Collaborator{{UserID: 2, AccessLevel: model.AccessWrite}})
	svc := NewLetterService(store, &fakeDrive{})

	if err := svc.Delete(context.Background(), letter.ID, 2); !errors.Is(err, ErrLetterNotFound) {
		t.Fatalf("expected ErrLetterNotFound, got %v", err)
	}
}

func TestSaveToDrive(t *testing.T) {
	store := newFakeLetterStore()
	letter := store.add(1, nil)
	drive := &fakeDrive{folderID: "folder-9", fileID: "file-9"}
	svc := NewLetterService(store, drive)

	fileID, err := svc.SaveToDrive(context.Background(), letter.ID, 1, "Dear Sir,")
	if err != nil {
		t.Fatalf("SaveToDrive: %v", err)
	}
	if fileID != "file-9" {
		t.Fatalf("unexpected file id: %s", fileID)
	}
	if store.savedFolderID != "folder-9" {
		t.Fatalf("folder id not persisted")
	}
	if store.syncedFileID != "file-9" {
		t.Fatalf("sync metadata not recorded")
	}
}

func TestSaveToDriveUploadFailure(t *testing.T) {
	store := newFakeLetterStore()
	letter := store.add(1, nil)
	drive := &fakeDrive{folderID: "folder-9", uploadErr: errors.New("quota exceeded")}
	svc := NewLetterService(store, drive)

	if _, err := svc.SaveToDrive(context.Background(), letter.ID, 1, "x"); err == nil {
		t.Fatalf("expected upload error")
	}
	if store.syncedFileID != "" {
		t.Fatalf("sync metadata recorded despite failure")
	}
}
