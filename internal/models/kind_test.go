package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMarkDeleted_Idempotent(t *testing.T) {
	first := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	entities := []SoftDeletable{
		&User{ID: 1},
		&Asset{ID: 2},
		&Playlist{ID: 3},
		&Track{ID: 4},
		&Comment{ID: 5},
		&Topic{ID: 6},
		&Listen{ID: 7},
	}

	seen := map[Kind]bool{}
	for _, e := range entities {
		seen[e.Kind()] = true

		assert.False(t, e.IsDeleted())
		assert.True(t, e.MarkDeleted(first), "%s", e.Kind())
		assert.True(t, e.IsDeleted())
		assert.False(t, e.MarkDeleted(later), "%s marked twice", e.Kind())
	}

	for _, k := range AllKinds {
		assert.True(t, seen[k], "no entity covers kind %s", k)
	}

	u := &User{}
	u.MarkDeleted(first)
	u.MarkDeleted(later)
	assert.Equal(t, first, u.DeletedAt.Time)
}

func TestCommentableType_Valid(t *testing.T) {
	assert.True(t, CommentableAsset.Valid())
	assert.True(t, CommentableTopic.Valid())
	assert.False(t, CommentableType("playlist").Valid())
}
