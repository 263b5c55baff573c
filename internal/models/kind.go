package models

import (
	"time"

	"gorm.io/gorm"
)

// Kind identifies an entity variant participating in soft deletion.
type Kind string

const (
	KindUser     Kind = "user"
	KindAsset    Kind = "asset"
	KindPlaylist Kind = "playlist"
	KindTrack    Kind = "track"
	KindComment  Kind = "comment"
	KindTopic    Kind = "topic"
	KindListen   Kind = "listen"
)

// AllKinds lists every soft-deletable variant.
var AllKinds = []Kind{
	KindUser,
	KindAsset,
	KindPlaylist,
	KindTrack,
	KindComment,
	KindTopic,
	KindListen,
}

// SoftDeletable is implemented by every persisted entity.
// MarkDeleted sets the deletion marker in memory and reports whether it changed.
type SoftDeletable interface {
	Kind() Kind
	GetID() uint64
	IsDeleted() bool
	MarkDeleted(at time.Time) bool
}

func markDeleted(d *gorm.DeletedAt, at time.Time) bool {
	if d.Valid {
		return false
	}
	*d = gorm.DeletedAt{Time: at, Valid: true}
	return true
}
