package model

type UserInfo struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	AvatarURL    *string `json:"avatarUrl,omitempty"`
	IsGoogleUser bool    `json:"isGoogleUser"`
}

type StatusResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          *UserInfo `json:"user"`
}

type RefreshResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

type LogoutResponse struct {
	Message string `json:"message"`
}

func UserInfoFrom(user *User) *UserInfo {
	if user == nil {
		return nil
	}
	return &UserInfo{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		AvatarURL:    user.AvatarURL,
		IsGoogleUser: user.IsGoogleUser,
	}
}
