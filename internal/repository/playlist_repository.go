package repository

import (
	"errors"

	"github.com/yukikurage/soundshare-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPlaylistRepository is a GORM implementation of PlaylistRepository
type GormPlaylistRepository struct {
	db *gorm.DB
}

// NewPlaylistRepository creates a new PlaylistRepository
func NewPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &GormPlaylistRepository{db: db}
}

// Create creates a new playlist
func (r *GormPlaylistRepository) Create(playlist *models.Playlist) error {
	return r.db.Create(playlist).Error
}

// FindByID finds a playlist by ID
func (r *GormPlaylistRepository) FindByID(id uint64) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := r.db.First(&playlist, id).Error; err != nil {
		return nil, err
	}
	return &playlist, nil
}

// ListByUser lists a user's playlists, favorites first
func (r *GormPlaylistRepository) ListByUser(userID uint64, includePrivate bool) ([]models.Playlist, error) {
	query := r.db.Where("user_id = ?", userID)
	if !includePrivate {
		query = query.Where("is_private = ?", false)
	}

	var playlists []models.Playlist
	if err := query.Order("is_favorite DESC").Order("id ASC").Find(&playlists).Error; err != nil {
		return nil, err
	}
	return playlists, nil
}

// ListTracks lists live tracks in position order with their assets
func (r *GormPlaylistRepository) ListTracks(playlistID uint64) ([]models.Track, error) {
	var tracks []models.Track
	if err := r.db.Preload("Asset").
		Where("playlist_id = ?", playlistID).
		Order("position ASC").
		Find(&tracks).Error; err != nil {
		return nil, err
	}
	return tracks, nil
}

// AppendTrack adds an asset at the end of a playlist
func (r *GormPlaylistRepository) AppendTrack(playlistID, assetID uint64) (*models.Track, error) {
	var track *models.Track
	err := r.db.Transaction(func(tx *gorm.DB) error {
		playlist, err := lockPlaylist(tx, playlistID)
		if err != nil {
			return err
		}

		track, err = appendTrack(tx, playlist, assetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return track, nil
}

// FindTrack finds a track by ID
func (r *GormPlaylistRepository) FindTrack(id uint64) (*models.Track, error) {
	var track models.Track
	if err := r.db.First(&track, id).Error; err != nil {
		return nil, err
	}
	return &track, nil
}

// FindFavorite finds the user's favorite track for the asset
func (r *GormPlaylistRepository) FindFavorite(userID, assetID uint64) (*models.Track, error) {
	var track models.Track
	if err := r.db.Where("user_id = ? AND asset_id = ? AND is_favorite = ?", userID, assetID, true).
		First(&track).Error; err != nil {
		return nil, err
	}
	return &track, nil
}

// AddFavorite appends the asset to the user's favorites playlist. The user
// row is locked while the playlist is looked up so two concurrent first
// favorites cannot create two playlists.
func (r *GormPlaylistRepository) AddFavorite(userID, assetID uint64) (*models.Playlist, *models.Track, error) {
	var (
		playlist models.Playlist
		track    *models.Track
	)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&user, userID).Error; err != nil {
			return err
		}

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND is_favorite = ?", userID, true).
			First(&playlist).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			playlist = models.Playlist{
				UserID:     userID,
				Title:      models.FavoritesTitle,
				IsFavorite: true,
			}
			err = tx.Create(&playlist).Error
		}
		if err != nil {
			return err
		}

		track, err = appendTrack(tx, &playlist, assetID)
		if err != nil {
			return err
		}
		playlist.TracksCount++
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &playlist, track, nil
}

func lockPlaylist(tx *gorm.DB, id uint64) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&playlist, id).Error; err != nil {
		return nil, err
	}
	return &playlist, nil
}

// appendTrack places a track after the last live one and bumps the counter.
// The caller holds the playlist lock. user_id is taken from the playlist.
func appendTrack(tx *gorm.DB, playlist *models.Playlist, assetID uint64) (*models.Track, error) {
	var maxPosition int
	if err := tx.Model(&models.Track{}).
		Where("playlist_id = ?", playlist.ID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPosition).Error; err != nil {
		return nil, err
	}

	track := &models.Track{
		PlaylistID: playlist.ID,
		AssetID:    assetID,
		UserID:     playlist.UserID,
		Position:   maxPosition + 1,
		IsFavorite: playlist.IsFavorite,
	}
	if err := tx.Create(track).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&models.Playlist{}).
		Where("id = ?", playlist.ID).
		UpdateColumns(map[string]interface{}{
			"tracks_count": gorm.Expr("tracks_count + 1"),
			"updated_at":   gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error; err != nil {
		return nil, err
	}

	return track, nil
}
