package models

import (
	"time"

	"gorm.io/gorm"
)

// CommentableType is the discriminant of the commentable union.
type CommentableType string

const (
	CommentableAsset CommentableType = "asset"
	CommentableTopic CommentableType = "topic"
)

// Valid reports whether t names a known commentable variant.
func (t CommentableType) Valid() bool {
	return t == CommentableAsset || t == CommentableTopic
}

// Comment is attached to either an Asset or a Topic. CommenterID is nil for
// guests, who are identified only by RemoteIP. UserID is the owner of the
// commentable.
type Comment struct {
	ID              uint64          `gorm:"primarykey" json:"id"`
	CommentableType CommentableType `gorm:"type:varchar(20);not null;index:idx_comments_commentable" json:"commentable_type"`
	CommentableID   uint64          `gorm:"not null;index:idx_comments_commentable" json:"commentable_id"`
	CommenterID     *uint64         `gorm:"index" json:"commenter_id"`
	UserID          uint64          `gorm:"not null;index" json:"user_id"`
	RemoteIP        string          `gorm:"type:varchar(64)" json:"-"`
	Body            string          `gorm:"type:text;not null" json:"body"`
	IsPrivate       bool            `gorm:"not null;default:false" json:"is_private"`
	IsSpam          bool            `gorm:"not null;default:false" json:"is_spam"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relations
	Commenter *User `gorm:"foreignKey:CommenterID" json:"commenter,omitempty"`
}

func (c *Comment) Kind() Kind                    { return KindComment }
func (c *Comment) GetID() uint64                 { return c.ID }
func (c *Comment) IsDeleted() bool               { return c.DeletedAt.Valid }
func (c *Comment) MarkDeleted(at time.Time) bool { return markDeleted(&c.DeletedAt, at) }

// IsGuest reports whether the comment was left without an account.
func (c *Comment) IsGuest() bool {
	return c.CommenterID == nil
}
