package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/writeitupx/backend/internal/model"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	lettersFolderName = "Letters"
	folderMimeType    = "application/vnd.google-apps.folder"
)

// DriveClient uploads exported letters to the user's Drive using the
// delegated credentials captured during the handshake.
type DriveClient struct {
	google *GoogleClient
}

func NewDriveClient(google *GoogleClient) *DriveClient {
	return &DriveClient{google: google}
}

func (c *DriveClient) service(ctx context.Context, user *model.User) (*drive.Service, error) {
	if user.GoogleAccessToken == nil && user.GoogleRefreshToken == nil {
		return nil, fmt.Errorf("no google credentials stored for user %d", user.ID)
	}
	svc, err := drive.NewService(ctx, option.WithTokenSource(c.google.TokenSource(ctx, user)))
	if err != nil {
		return nil, fmt.Errorf("failed to build drive service: %w", err)
	}
	return svc, nil
}

// EnsureLettersFolder creates the Letters folder on first export and returns
// its id. The caller persists the id on the identity record.
func (c *DriveClient) EnsureLettersFolder(ctx context.Context, user *model.User) (string, error) {
	if user.DriveFolderID != nil && *user.DriveFolderID != "" {
		return *user.DriveFolderID, nil
	}

	svc, err := c.service(ctx, user)
	if err != nil {
		return "", err
	}

	folder, err := svc.Files.Create(&drive.File{
		Name:     lettersFolderName,
		MimeType: folderMimeType,
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create drive folder: %w", err)
	}
	return folder.Id, nil
}

// UploadLetter creates or updates the exported plain-text file. Returns the
// file id (unchanged on update).
func (c *DriveClient) UploadLetter(ctx context.Context, user *model.User, letter *model.Letter, folderID, content string) (string, error) {
	svc, err := c.service(ctx, user)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_v%d.txt", letter.Title, letter.Version)
	meta := &drive.File{
		Name:     name,
		MimeType: "text/plain",
		Properties: map[string]string{
			"letterVersion": fmt.Sprintf("%d", letter.Version),
			"lastEditor":    user.Email,
		},
	}

	media := strings.NewReader(content)

	if letter.DriveFileID != nil && *letter.DriveFileID != "" {
		file, err := svc.Files.Update(*letter.DriveFileID, meta).
			Media(media, googleapi.ContentType("text/plain")).
			Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to update drive file: %w", err)
		}
		return file.Id, nil
	}

	meta.Parents = []string{folderID}
	file, err := svc.Files.Create(meta).
		Media(media, googleapi.ContentType("text/plain")).
		Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create drive file: %w", err)
	}
	return file.Id, nil
}

func (c *DriveClient) DeleteFile(ctx context.Context, user *model.User, fileID string) error {
	svc, err := c.service(ctx, user)
	if err != nil {
		return err
	}
	return svc.Files.Delete(fileID).Context(ctx).Do()
}
