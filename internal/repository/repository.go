package repository

import (
	"time"

	"github.com/yukikurage/soundshare-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a live user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByLogin finds a user by login, optionally including deleted users
	FindByLogin(login string, withDeleted bool) (*models.User, error)

	// FindByEmail finds a live user by email
	FindByEmail(email string) (*models.User, error)

	// FindByPerishableToken finds a live user by activation token
	FindByPerishableToken(token string) (*models.User, error)

	// ExistsWithLoginOrEmail reports whether any user, deleted or not, holds the login or email
	ExistsWithLoginOrEmail(login, email string) (bool, error)

	// UpdateColumns writes the given columns without touching other fields
	UpdateColumns(id uint64, columns map[string]interface{}) error
}

// AssetFilter holds filtering options for listing assets
type AssetFilter struct {
	UserID        *uint64
	PublishedOnly bool
	Page          int
	PageSize      int
}

// AssetRepository defines the interface for asset data access
type AssetRepository interface {
	// Create creates an asset and bumps the owner's asset counter
	Create(asset *models.Asset) error

	// FindByID finds a live asset by ID
	FindByID(id uint64) (*models.Asset, error)

	// List retrieves assets with filtering and pagination
	List(filter AssetFilter) ([]models.Asset, int64, error)

	// FirstCreatedAt returns the creation time of the user's oldest live asset
	FirstCreatedAt(userID uint64) (*time.Time, error)
}

// PlaylistRepository defines the interface for playlist and track data access
type PlaylistRepository interface {
	// Create creates a new playlist
	Create(playlist *models.Playlist) error

	// FindByID finds a live playlist by ID
	FindByID(id uint64) (*models.Playlist, error)

	// ListByUser lists a user's live playlists
	ListByUser(userID uint64, includePrivate bool) ([]models.Playlist, error)

	// ListTracks lists the live tracks of a playlist in position order
	ListTracks(playlistID uint64) ([]models.Track, error)

	// AppendTrack adds an asset at the end of a playlist
	AppendTrack(playlistID, assetID uint64) (*models.Track, error)

	// FindTrack finds a live track by ID
	FindTrack(id uint64) (*models.Track, error)

	// FindFavorite finds the user's live favorite track for an asset
	FindFavorite(userID, assetID uint64) (*models.Track, error)

	// AddFavorite appends the asset to the user's favorites playlist, creating it if needed
	AddFavorite(userID, assetID uint64) (*models.Playlist, *models.Track, error)
}

// CommentFilter selects the comments of one commentable
type CommentFilter struct {
	CommentableType models.CommentableType
	CommentableID   uint64
	IncludePrivate  bool
	Page            int
	PageSize        int
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a new comment
	Create(comment *models.Comment) error

	// FindByID finds a live comment by ID
	FindByID(id uint64) (*models.Comment, error)

	// List retrieves the comments of a commentable with pagination
	List(filter CommentFilter) ([]models.Comment, int64, error)

	// ExistsDuplicate reports whether the same body was already posted from the same IP on the commentable
	ExistsDuplicate(commentableType models.CommentableType, commentableID uint64, body, remoteIP string) (bool, error)
}

// TopicRepository defines the interface for topic data access
type TopicRepository interface {
	// Create creates a new topic
	Create(topic *models.Topic) error

	// FindByID finds a live topic by ID
	FindByID(id uint64) (*models.Topic, error)
}

// ListenRepository defines the interface for listen data access
type ListenRepository interface {
	// Create records a listen and bumps the asset and owner listen counters
	Create(listen *models.Listen) error

	// CountByAsset counts live listens of an asset
	CountByAsset(assetID uint64) (int64, error)
}
