package models

import (
	"time"

	"gorm.io/gorm"
)

type Topic struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	UserID    uint64         `gorm:"not null;index" json:"user_id"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Topic) Kind() Kind                    { return KindTopic }
func (t *Topic) GetID() uint64                 { return t.ID }
func (t *Topic) IsDeleted() bool               { return t.DeletedAt.Valid }
func (t *Topic) MarkDeleted(at time.Time) bool { return markDeleted(&t.DeletedAt, at) }
