package dto

import (
	"time"

	"github.com/yukikurage/soundshare-api/internal/cascade"
	"github.com/yukikurage/soundshare-api/internal/models"
)

// AssetDTO represents an uploaded track in API responses
type AssetDTO struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	Title         string    `json:"title"`
	LengthSeconds int       `json:"length_seconds"`
	Published     bool      `json:"published"`
	ListensCount  int64     `json:"listens_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// AssetListResponse represents a paginated list of assets
type AssetListResponse struct {
	Assets     []AssetDTO `json:"assets"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalCount int64      `json:"total_count"`
	TotalPages int        `json:"total_pages"`
}

// TrackDTO represents a playlist entry
type TrackDTO struct {
	ID         uint64    `json:"id"`
	PlaylistID uint64    `json:"playlist_id"`
	AssetID    uint64    `json:"asset_id"`
	Position   int       `json:"position"`
	IsFavorite bool      `json:"is_favorite"`
	Asset      *AssetDTO `json:"asset,omitempty"`
}

// PlaylistDTO represents a playlist in API responses
type PlaylistDTO struct {
	ID          uint64     `json:"id"`
	UserID      uint64     `json:"user_id"`
	Title       string     `json:"title"`
	IsFavorite  bool       `json:"is_favorite"`
	IsPrivate   bool       `json:"is_private"`
	TracksCount int64      `json:"tracks_count"`
	CreatedAt   time.Time  `json:"created_at"`
	Tracks      []TrackDTO `json:"tracks,omitempty"`
}

// FavoriteDTO is the state after a favorite toggle
type FavoriteDTO struct {
	Favorited bool      `json:"favorited"`
	Track     *TrackDTO `json:"track,omitempty"`
}

// TopicDTO represents a forum topic
type TopicDTO struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentDTO represents a comment. Commenter is nil for guests.
type CommentDTO struct {
	ID              uint64                 `json:"id"`
	CommentableType models.CommentableType `json:"commentable_type"`
	CommentableID   uint64                 `json:"commentable_id"`
	Body            string                 `json:"body"`
	IsPrivate       bool                   `json:"is_private"`
	CreatedAt       time.Time              `json:"created_at"`
	Commenter       *UserDTO               `json:"commenter,omitempty"`
}

// CommentListResponse represents a paginated list of comments
type CommentListResponse struct {
	Comments   []CommentDTO `json:"comments"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalCount int64        `json:"total_count"`
	TotalPages int          `json:"total_pages"`
}

// ListenDTO represents a recorded play
type ListenDTO struct {
	ID        uint64    `json:"id"`
	AssetID   uint64    `json:"asset_id"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CascadeReportDTO summarizes a removal
type CascadeReportDTO struct {
	RunID   string         `json:"run_id"`
	Root    string         `json:"root"`
	Deleted map[string]int `json:"deleted"`
	Total   int            `json:"total"`
}

// Conversion functions

// ToAssetDTO converts an Asset model to AssetDTO
func ToAssetDTO(asset models.Asset) AssetDTO {
	return AssetDTO{
		ID:            asset.ID,
		UserID:        asset.UserID,
		Title:         asset.Title,
		LengthSeconds: asset.LengthSeconds,
		Published:     asset.Published,
		ListensCount:  asset.ListensCount,
		CreatedAt:     asset.CreatedAt,
	}
}

// ToAssetListResponse converts a slice of assets to AssetListResponse
func ToAssetListResponse(assets []models.Asset, page, pageSize int, totalCount int64) AssetListResponse {
	items := make([]AssetDTO, len(assets))
	for i, asset := range assets {
		items[i] = ToAssetDTO(asset)
	}

	return AssetListResponse{
		Assets:     items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages(totalCount, pageSize),
	}
}

// ToTrackDTO converts a Track model to TrackDTO
func ToTrackDTO(track models.Track) TrackDTO {
	dto := TrackDTO{
		ID:         track.ID,
		PlaylistID: track.PlaylistID,
		AssetID:    track.AssetID,
		Position:   track.Position,
		IsFavorite: track.IsFavorite,
	}

	// Include asset if preloaded
	if track.Asset.ID != 0 {
		asset := ToAssetDTO(track.Asset)
		dto.Asset = &asset
	}

	return dto
}

// ToPlaylistDTO converts a Playlist model to PlaylistDTO
func ToPlaylistDTO(playlist models.Playlist) PlaylistDTO {
	dto := PlaylistDTO{
		ID:          playlist.ID,
		UserID:      playlist.UserID,
		Title:       playlist.Title,
		IsFavorite:  playlist.IsFavorite,
		IsPrivate:   playlist.IsPrivate,
		TracksCount: playlist.TracksCount,
		CreatedAt:   playlist.CreatedAt,
	}

	if len(playlist.Tracks) > 0 {
		dto.Tracks = make([]TrackDTO, len(playlist.Tracks))
		for i, track := range playlist.Tracks {
			dto.Tracks[i] = ToTrackDTO(track)
		}
	}

	return dto
}

func ToTopicDTO(topic models.Topic) TopicDTO {
	return TopicDTO{
		ID:        topic.ID,
		UserID:    topic.UserID,
		Title:     topic.Title,
		CreatedAt: topic.CreatedAt,
	}
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:              comment.ID,
		CommentableType: comment.CommentableType,
		CommentableID:   comment.CommentableID,
		Body:            comment.Body,
		IsPrivate:       comment.IsPrivate,
		CreatedAt:       comment.CreatedAt,
	}

	if comment.Commenter != nil && comment.Commenter.ID != 0 {
		commenter := ToUserDTO(*comment.Commenter)
		dto.Commenter = &commenter
	}

	return dto
}

// ToCommentListResponse converts a slice of comments to CommentListResponse
func ToCommentListResponse(comments []models.Comment, page, pageSize int, totalCount int64) CommentListResponse {
	items := make([]CommentDTO, len(comments))
	for i, comment := range comments {
		items[i] = ToCommentDTO(comment)
	}

	return CommentListResponse{
		Comments:   items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages(totalCount, pageSize),
	}
}

func ToListenDTO(listen models.Listen) ListenDTO {
	return ListenDTO{
		ID:        listen.ID,
		AssetID:   listen.AssetID,
		Source:    listen.Source,
		CreatedAt: listen.CreatedAt,
	}
}

// ToCascadeReportDTO converts a cascade report. A nil report yields nil.
func ToCascadeReportDTO(report *cascade.Report) *CascadeReportDTO {
	if report == nil {
		return nil
	}

	deleted := make(map[string]int, len(report.Counts))
	for kind, n := range report.Counts {
		deleted[string(kind)] = n
	}

	return &CascadeReportDTO{
		RunID:   report.RunID.String(),
		Root:    report.Root.String(),
		Deleted: deleted,
		Total:   report.Total(),
	}
}

func totalPages(totalCount int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		pages++
	}
	return pages
}
