package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	AccessRead  = "read"
	AccessWrite = "write"
)

type Collaborator struct {
	UserID      int64  `json:"userId"`
	AccessLevel string `json:"accessLevel"`
}

type Letter struct {
	ID                  uuid.UUID       `json:"id"`
	UserID              int64           `json:"userId"`
	Title               string          `json:"title"`
	Content             json.RawMessage `json:"content"`
	Collaborators       []Collaborator  `json:"collaborators"`
	DriveFileID         *string         `json:"googleDriveFileId,omitempty"`
	LastSyncedWithDrive *time.Time      `json:"lastSyncedWithDrive,omitempty"`
	Version             int             `json:"version"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

type LetterCreateRequest struct {
	Title         string          `json:"title"`
	Content       json.RawMessage `json:"content"`
	Collaborators []Collaborator  `json:"collaborators"`
}

type LetterUpdateRequest struct {
	Title         string          `json:"title"`
	Content       json.RawMessage `json:"content"`
	Collaborators []Collaborator  `json:"collaborators"`
}

type DriveSaveRequest struct {
	Content string `json:"content"`
}

type DriveSaveResponse struct {
	Message     string `json:"message"`
	DriveFileID string `json:"googleDriveFileId"`
}

type LetterDeleteResponse struct {
	Message string `json:"message"`
}
