package models

import (
	"time"

	"gorm.io/gorm"
)

// Asset is an uploaded track. AudioKey points at the stored media, which
// soft deletion never touches.
type Asset struct {
	ID            uint64         `gorm:"primarykey" json:"id"`
	UserID        uint64         `gorm:"not null;index" json:"user_id"`
	Title         string         `gorm:"type:varchar(255);not null" json:"title"`
	AudioKey      string         `gorm:"type:varchar(255)" json:"-"`
	LengthSeconds int            `gorm:"not null;default:0" json:"length_seconds"`
	Published     bool           `gorm:"not null" json:"published"`
	ListensCount  int64          `gorm:"not null;default:0" json:"listens_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (a *Asset) Kind() Kind                    { return KindAsset }
func (a *Asset) GetID() uint64                 { return a.ID }
func (a *Asset) IsDeleted() bool               { return a.DeletedAt.Valid }
func (a *Asset) MarkDeleted(at time.Time) bool { return markDeleted(&a.DeletedAt, at) }
