package models

import (
	"time"

	"gorm.io/gorm"
)

type Playlist struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	UserID      uint64         `gorm:"not null;index" json:"user_id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	IsFavorite  bool           `gorm:"not null;default:false;index" json:"is_favorite"`
	IsPrivate   bool           `gorm:"not null;default:false" json:"is_private"`
	TracksCount int64          `gorm:"not null;default:0" json:"tracks_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User   User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Tracks []Track `gorm:"foreignKey:PlaylistID" json:"tracks,omitempty"`
}

// FavoritesTitle is the title given to a lazily created favorites playlist.
const FavoritesTitle = "Favorites"

func (p *Playlist) Kind() Kind                    { return KindPlaylist }
func (p *Playlist) GetID() uint64                 { return p.ID }
func (p *Playlist) IsDeleted() bool               { return p.DeletedAt.Valid }
func (p *Playlist) MarkDeleted(at time.Time) bool { return markDeleted(&p.DeletedAt, at) }
