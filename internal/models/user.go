package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID              uint64         `gorm:"primarykey" json:"id"`
	Login           string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"login"`
	Email           string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash    string         `gorm:"type:varchar(255);not null" json:"-"`
	IsSpam          bool           `gorm:"not null;default:false" json:"is_spam"`
	IsModerator     bool           `gorm:"not null;default:false" json:"is_moderator"`
	ActivatedAt     *time.Time     `json:"activated_at"`
	PerishableToken string         `gorm:"type:varchar(64);index" json:"-"`
	CurrentLoginIP  string         `gorm:"type:varchar(64)" json:"-"`
	Bio             string         `gorm:"type:text" json:"bio"`
	AssetsCount     int64          `gorm:"not null;default:0" json:"assets_count"`
	ListensCount    int64          `gorm:"not null;default:0" json:"listens_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Assets    []Asset    `gorm:"foreignKey:UserID" json:"-"`
	Playlists []Playlist `gorm:"foreignKey:UserID" json:"-"`
	Topics    []Topic    `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) Kind() Kind                    { return KindUser }
func (u *User) GetID() uint64                 { return u.ID }
func (u *User) IsDeleted() bool               { return u.DeletedAt.Valid }
func (u *User) MarkDeleted(at time.Time) bool { return markDeleted(&u.DeletedAt, at) }

// IsActivated reports whether the account finished email verification.
func (u *User) IsActivated() bool {
	return u.ActivatedAt != nil
}
