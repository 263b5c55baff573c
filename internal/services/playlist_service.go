package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/soundshare-api/internal/cascade"
	"github.com/yukikurage/soundshare-api/internal/models"
	"github.com/yukikurage/soundshare-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrPlaylistNotFound     = errors.New("playlist not found")
	ErrInvalidPlaylistTitle = errors.New("playlist title cannot be empty")
	ErrTrackNotFound        = errors.New("track not found")
	ErrAssetNotFound        = errors.New("asset not found")
	ErrFavoritesReserved    = errors.New("the favorites playlist is managed through favoriting")
)

// PlaylistService provides business logic for playlists, tracks and favorites.
type PlaylistService struct {
	playlistRepo repository.PlaylistRepository
	assetRepo    repository.AssetRepository
	runner       *CascadeRunner
}

// NewPlaylistService creates a new PlaylistService.
func NewPlaylistService(playlistRepo repository.PlaylistRepository, assetRepo repository.AssetRepository, runner *CascadeRunner) *PlaylistService {
	return &PlaylistService{
		playlistRepo: playlistRepo,
		assetRepo:    assetRepo,
		runner:       runner,
	}
}

// CreatePlaylistInput represents parameters to create a new playlist.
type CreatePlaylistInput struct {
	Title     string
	IsPrivate bool
	OwnerID   uint64
}

// CreatePlaylist creates a regular playlist.
func (s *PlaylistService) CreatePlaylist(input CreatePlaylistInput) (*models.Playlist, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidPlaylistTitle
	}

	playlist := &models.Playlist{
		UserID:    input.OwnerID,
		Title:     title,
		IsPrivate: input.IsPrivate,
	}
	if err := s.playlistRepo.Create(playlist); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	return playlist, nil
}

// ListPlaylists returns the owner's playlists. Private ones are included
// only when the viewer is the owner.
func (s *PlaylistService) ListPlaylists(ownerID uint64, viewerID *uint64) ([]models.Playlist, error) {
	includePrivate := viewerID != nil && *viewerID == ownerID
	playlists, err := s.playlistRepo.ListByUser(ownerID, includePrivate)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	return playlists, nil
}

// GetPlaylist returns a playlist with its tracks. Private playlists are
// reported as missing to anyone but the owner.
func (s *PlaylistService) GetPlaylist(id uint64, viewerID *uint64) (*models.Playlist, error) {
	playlist, err := s.findPlaylist(id)
	if err != nil {
		return nil, err
	}
	if playlist.IsPrivate && (viewerID == nil || *viewerID != playlist.UserID) {
		return nil, ErrPlaylistNotFound
	}

	tracks, err := s.playlistRepo.ListTracks(id)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	playlist.Tracks = tracks
	return playlist, nil
}

// AddTrack appends a live asset to one of the actor's playlists.
func (s *PlaylistService) AddTrack(actorID, playlistID, assetID uint64) (*models.Track, error) {
	playlist, err := s.ownedPlaylist(actorID, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist.IsFavorite {
		return nil, ErrFavoritesReserved
	}

	if _, err := s.findAsset(assetID); err != nil {
		return nil, err
	}

	track, err := s.playlistRepo.AppendTrack(playlist.ID, assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("failed to add track: %w", err)
	}
	return track, nil
}

// RemoveTrack soft-deletes one track; the remaining tracks close the gap.
func (s *PlaylistService) RemoveTrack(ctx context.Context, actorID, playlistID, trackID uint64) error {
	if _, err := s.ownedPlaylist(actorID, playlistID); err != nil {
		return err
	}

	track, err := s.playlistRepo.FindTrack(trackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTrackNotFound
		}
		return fmt.Errorf("failed to find track: %w", err)
	}
	if track.PlaylistID != playlistID {
		return ErrTrackNotFound
	}

	_, err = s.runner.Run(ctx, cascade.Node{Kind: models.KindTrack, ID: track.ID})
	return err
}

// DeletePlaylist soft-deletes a playlist and its tracks.
func (s *PlaylistService) DeletePlaylist(ctx context.Context, actorID, playlistID uint64) (*cascade.Report, error) {
	if _, err := s.ownedPlaylist(actorID, playlistID); err != nil {
		return nil, err
	}
	return s.runner.Run(ctx, cascade.Node{Kind: models.KindPlaylist, ID: playlistID})
}

// FavoriteResult reports the state after a toggle.
type FavoriteResult struct {
	Favorited bool
	Playlist  *models.Playlist
	Track     *models.Track
}

// ToggleFavorite favorites a published asset, or unfavorites it when it is
// already a favorite. The favorites playlist is created on first use and
// reused afterwards.
func (s *PlaylistService) ToggleFavorite(ctx context.Context, userID, assetID uint64) (*FavoriteResult, error) {
	asset, err := s.findAsset(assetID)
	if err != nil {
		return nil, err
	}
	if !asset.Published {
		return nil, ErrAssetNotFound
	}

	existing, err := s.playlistRepo.FindFavorite(userID, assetID)
	switch {
	case err == nil:
		if _, err := s.runner.Run(ctx, cascade.Node{Kind: models.KindTrack, ID: existing.ID}); err != nil {
			return nil, err
		}
		return &FavoriteResult{Favorited: false}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to find favorite: %w", err)
	}

	playlist, track, err := s.playlistRepo.AddFavorite(userID, assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}
	return &FavoriteResult{Favorited: true, Playlist: playlist, Track: track}, nil
}

// ownedPlaylist hides playlists of other users behind ErrPlaylistNotFound.
func (s *PlaylistService) ownedPlaylist(actorID, playlistID uint64) (*models.Playlist, error) {
	playlist, err := s.findPlaylist(playlistID)
	if err != nil {
		return nil, err
	}
	if playlist.UserID != actorID {
		return nil, ErrPlaylistNotFound
	}
	return playlist, nil
}

func (s *PlaylistService) findPlaylist(id uint64) (*models.Playlist, error) {
	playlist, err := s.playlistRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("failed to find playlist: %w", err)
	}
	return playlist, nil
}

func (s *PlaylistService) findAsset(id uint64) (*models.Asset, error) {
	asset, err := s.assetRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to find asset: %w", err)
	}
	return asset, nil
}
