package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// compositeIndexes backs the cascade's hot lookups: live children by parent.
var compositeIndexes = []struct {
	table   string
	name    string
	columns []string
}{
	{"assets", "idx_assets_user_live", []string{"user_id", "deleted_at"}},
	{"playlists", "idx_playlists_user_live", []string{"user_id", "deleted_at"}},
	{"playlists", "idx_playlists_user_favorite", []string{"user_id", "is_favorite"}},
	{"tracks", "idx_tracks_playlist_position", []string{"playlist_id", "position"}},
	{"tracks", "idx_tracks_asset_live", []string{"asset_id", "deleted_at"}},
	{"comments", "idx_comments_commenter_live", []string{"commenter_id", "deleted_at"}},
	{"comments", "idx_comments_commentable_live", []string{"commentable_type", "commentable_id", "deleted_at"}},
	{"listens", "idx_listens_asset_live", []string{"asset_id", "deleted_at"}},
	{"listens", "idx_listens_listener_live", []string{"listener_id", "deleted_at"}},
	{"topics", "idx_topics_user_live", []string{"user_id", "deleted_at"}},
}

// AddIndexes creates the composite indexes AutoMigrate cannot express from
// struct tags. Existing indexes are skipped.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
