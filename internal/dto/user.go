package dto

import (
	"time"

	"github.com/yukikurage/soundshare-api/internal/models"
)

// UserDTO represents a user in public API responses
type UserDTO struct {
	ID           uint64    `json:"id"`
	Login        string    `json:"login"`
	Bio          string    `json:"bio,omitempty"`
	AssetsCount  int64     `json:"assets_count"`
	ListensCount int64     `json:"listens_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// MeDTO is the authenticated user's own view
type MeDTO struct {
	UserDTO
	Email       string `json:"email"`
	Activated   bool   `json:"activated"`
	IsModerator bool   `json:"is_moderator"`
}

// AdminUserDTO is the moderator view, which includes deleted accounts
type AdminUserDTO struct {
	MeDTO
	IsSpam         bool       `json:"is_spam"`
	CurrentLoginIP string     `json:"current_login_ip"`
	DeletedAt      *time.Time `json:"deleted_at"`
}

// SignupResponse tells the client the account is waiting for activation.
// Spam and honeypot signups get the same body without a user.
type SignupResponse struct {
	Message string   `json:"message"`
	User    *UserDTO `json:"user,omitempty"`
}

// DestroyResponse is the neutral answer to an account removal request
type DestroyResponse struct {
	Redirect string `json:"redirect"`
	Queued   bool   `json:"queued,omitempty"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:           user.ID,
		Login:        user.Login,
		Bio:          user.Bio,
		AssetsCount:  user.AssetsCount,
		ListensCount: user.ListensCount,
		CreatedAt:    user.CreatedAt,
	}
}

// ToMeDTO converts a User model to MeDTO
func ToMeDTO(user models.User) MeDTO {
	return MeDTO{
		UserDTO:     ToUserDTO(user),
		Email:       user.Email,
		Activated:   user.IsActivated(),
		IsModerator: user.IsModerator,
	}
}

// ToAdminUserDTO converts a User model, deleted or not, to AdminUserDTO
func ToAdminUserDTO(user models.User) AdminUserDTO {
	dto := AdminUserDTO{
		MeDTO:          ToMeDTO(user),
		IsSpam:         user.IsSpam,
		CurrentLoginIP: user.CurrentLoginIP,
	}
	if user.DeletedAt.Valid {
		deletedAt := user.DeletedAt.Time
		dto.DeletedAt = &deletedAt
	}
	return dto
}
