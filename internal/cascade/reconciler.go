package cascade

import (
	"fmt"
	"time"

	"github.com/yukikurage/soundshare-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reconciler restores denormalised counters and track positions after a
// row has been soft-deleted. It runs inside the deleting transaction and
// must only be called for rows whose marker actually changed.
type Reconciler struct{}

// NewReconciler creates a Reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Reconcile applies the side effects of deleting n at time at.
func (r *Reconciler) Reconcile(tx *gorm.DB, n Node, at time.Time) error {
	switch n.Kind {
	case models.KindTrack:
		return r.track(tx, n.ID, at)
	case models.KindAsset:
		return r.asset(tx, n.ID)
	case models.KindListen:
		return r.listen(tx, n.ID)
	default:
		return nil
	}
}

// track decrements the playlist counter and closes the gap left at the
// deleted position. The playlist row is locked first so concurrent removals
// from the same playlist compact one after the other.
func (r *Reconciler) track(tx *gorm.DB, id uint64, at time.Time) error {
	var track models.Track
	if err := tx.Unscoped().Select("id", "playlist_id", "position").First(&track, id).Error; err != nil {
		return fmt.Errorf("load track %d: %w", id, err)
	}

	var playlist models.Playlist
	if err := tx.Unscoped().
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&playlist, track.PlaylistID).Error; err != nil {
		return fmt.Errorf("lock playlist %d: %w", track.PlaylistID, err)
	}

	// Position may have moved since the first read if another removal
	// committed while we waited on the playlist lock.
	if err := tx.Unscoped().Select("id", "playlist_id", "position").First(&track, id).Error; err != nil {
		return fmt.Errorf("reload track %d: %w", id, err)
	}

	if err := tx.Model(&models.Track{}).
		Where("playlist_id = ? AND position > ?", track.PlaylistID, track.Position).
		UpdateColumn("position", gorm.Expr("position - 1")).Error; err != nil {
		return fmt.Errorf("compact playlist %d: %w", track.PlaylistID, err)
	}

	if err := tx.Unscoped().Model(&models.Playlist{}).
		Where("id = ? AND tracks_count > 0", track.PlaylistID).
		UpdateColumns(map[string]interface{}{
			"tracks_count": gorm.Expr("tracks_count - 1"),
			"updated_at":   at,
		}).Error; err != nil {
		return fmt.Errorf("decrement playlist %d: %w", track.PlaylistID, err)
	}

	return nil
}

func (r *Reconciler) asset(tx *gorm.DB, id uint64) error {
	var asset models.Asset
	if err := tx.Unscoped().Select("id", "user_id").First(&asset, id).Error; err != nil {
		return fmt.Errorf("load asset %d: %w", id, err)
	}

	return decrement(tx, &models.User{}, asset.UserID, "assets_count")
}

func (r *Reconciler) listen(tx *gorm.DB, id uint64) error {
	var listen models.Listen
	if err := tx.Unscoped().Select("id", "asset_id", "track_owner_id").First(&listen, id).Error; err != nil {
		return fmt.Errorf("load listen %d: %w", id, err)
	}

	if err := decrement(tx, &models.Asset{}, listen.AssetID, "listens_count"); err != nil {
		return err
	}
	return decrement(tx, &models.User{}, listen.TrackOwnerID, "listens_count")
}

// decrement lowers column on the row id of model, deleted or not, never
// below zero.
func decrement(tx *gorm.DB, model interface{}, id uint64, column string) error {
	err := tx.Unscoped().Model(model).
		Where("id = ? AND "+column+" > 0", id).
		UpdateColumn(column, gorm.Expr(column+" - 1")).Error
	if err != nil {
		return fmt.Errorf("decrement %s on %d: %w", column, id, err)
	}
	return nil
}
