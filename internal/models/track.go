package models

import (
	"time"

	"gorm.io/gorm"
)

// Track places an Asset in a Playlist. Position is 1-based and contiguous
// among the playlist's live tracks.
type Track struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	PlaylistID uint64         `gorm:"not null;index" json:"playlist_id"`
	AssetID    uint64         `gorm:"not null;index" json:"asset_id"`
	UserID     uint64         `gorm:"not null;index" json:"user_id"`
	Position   int            `gorm:"not null;default:1" json:"position"`
	IsFavorite bool           `gorm:"not null;default:false;index" json:"is_favorite"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Playlist Playlist `gorm:"foreignKey:PlaylistID" json:"-"`
	Asset    Asset    `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
}

func (t *Track) Kind() Kind                    { return KindTrack }
func (t *Track) GetID() uint64                 { return t.ID }
func (t *Track) IsDeleted() bool               { return t.DeletedAt.Valid }
func (t *Track) MarkDeleted(at time.Time) bool { return markDeleted(&t.DeletedAt, at) }
