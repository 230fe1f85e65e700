package admin

import (
	"time"

	"docstamp/internal/audit"
	"docstamp/internal/auth/models"
)

// UserInfoResponse is a directory entry without its password hash.
type UserInfoResponse struct {
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// UsersListResponse wraps the list of users for HTTP response.
type UsersListResponse struct {
	Users []*UserInfoResponse `json:"users"`
	Total int                 `json:"total"`
}

// LogsListResponse wraps the generation log for HTTP response.
type LogsListResponse struct {
	Logs  []*audit.Record `json:"logs"`
	Total int             `json:"total"`
}

func toUserInfo(u *models.User) *UserInfoResponse {
	return &UserInfoResponse{Username: u.Username, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt}
}
