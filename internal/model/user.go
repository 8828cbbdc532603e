package model

import "time"

// User is the durable identity record. Google credential columns are only
// read by the Drive export path, never by token validation.
type User struct {
	ID                 int64
	Email              string
	Name               string
	AvatarURL          *string
	IsGoogleUser       bool
	GoogleID           *string
	GoogleAccessToken  *string
	GoogleRefreshToken *string
	DriveFolderID      *string
	Blocked            bool
	CreatedAt          time.Time
	LastLoginAt        *time.Time
}

// AuthUser is the authenticated principal attached to a request after
// token validation.
type AuthUser struct {
	ID    int64
	Email string
	Name  string
}
