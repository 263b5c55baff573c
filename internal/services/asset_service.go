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

var ErrInvalidAssetTitle = errors.New("asset title cannot be empty")

// AssetService manages uploaded tracks. Media files are referenced by key
// only; removing an asset leaves the stored media alone.
type AssetService struct {
	assetRepo repository.AssetRepository
	userRepo  repository.UserRepository
	runner    *CascadeRunner
}

// NewAssetService creates a new AssetService.
func NewAssetService(assetRepo repository.AssetRepository, userRepo repository.UserRepository, runner *CascadeRunner) *AssetService {
	return &AssetService{
		assetRepo: assetRepo,
		userRepo:  userRepo,
		runner:    runner,
	}
}

// CreateAssetInput represents parameters to create a new asset.
type CreateAssetInput struct {
	OwnerID       uint64
	Title         string
	AudioKey      string
	LengthSeconds int
	Published     bool
}

// CreateAsset stores the asset and bumps the owner's asset counter.
func (s *AssetService) CreateAsset(input CreateAssetInput) (*models.Asset, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidAssetTitle
	}

	asset := &models.Asset{
		UserID:        input.OwnerID,
		Title:         title,
		AudioKey:      input.AudioKey,
		LengthSeconds: input.LengthSeconds,
		Published:     input.Published,
	}
	if err := s.assetRepo.Create(asset); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}

	return asset, nil
}

// ListAssetsInput filters the asset listing.
type ListAssetsInput struct {
	OwnerLogin string
	ViewerID   *uint64
	Page       int
	PageSize   int
}

// ListAssets lists a user's assets. Unpublished assets are visible only to
// their owner.
func (s *AssetService) ListAssets(input ListAssetsInput) ([]models.Asset, int64, error) {
	filter := repository.AssetFilter{
		PublishedOnly: true,
		Page:          input.Page,
		PageSize:      input.PageSize,
	}

	if input.OwnerLogin != "" {
		owner, err := s.userRepo.FindByLogin(input.OwnerLogin, false)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, ErrUserNotFound
			}
			return nil, 0, fmt.Errorf("failed to find user: %w", err)
		}
		filter.UserID = &owner.ID
		filter.PublishedOnly = input.ViewerID == nil || *input.ViewerID != owner.ID
	}

	assets, total, err := s.assetRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, total, nil
}

// DeleteAsset soft-deletes an asset with its comments, tracks and listens.
// Owners and moderators may delete.
func (s *AssetService) DeleteAsset(ctx context.Context, actorID, assetID uint64) (*cascade.Report, error) {
	asset, err := s.assetRepo.FindByID(assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to find asset: %w", err)
	}

	if asset.UserID != actorID {
		actor, err := s.userRepo.FindByID(actorID)
		if err != nil || !actor.IsModerator {
			return nil, ErrAssetNotFound
		}
	}

	return s.runner.Run(ctx, cascade.Node{Kind: models.KindAsset, ID: asset.ID})
}
