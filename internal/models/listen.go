package models

import (
	"time"

	"gorm.io/gorm"
)

// Listen records one play of an Asset. ListenerID is nil for anonymous plays;
// TrackOwnerID is the asset owner at the time of the play. Rows are never
// updated after creation apart from the deletion marker.
type Listen struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	AssetID      uint64         `gorm:"not null;index" json:"asset_id"`
	ListenerID   *uint64        `gorm:"index" json:"listener_id"`
	TrackOwnerID uint64         `gorm:"not null;index" json:"track_owner_id"`
	Source       string         `gorm:"type:varchar(255)" json:"source"`
	RemoteIP     string         `gorm:"type:varchar(64)" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (l *Listen) Kind() Kind                    { return KindListen }
func (l *Listen) GetID() uint64                 { return l.ID }
func (l *Listen) IsDeleted() bool               { return l.DeletedAt.Valid }
func (l *Listen) MarkDeleted(at time.Time) bool { return markDeleted(&l.DeletedAt, at) }
