package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/soundshare-api/internal/models"
	"github.com/yukikurage/soundshare-api/internal/repository"
	"gorm.io/gorm"
)

// ListenService records plays.
type ListenService struct {
	listenRepo repository.ListenRepository
	assetRepo  repository.AssetRepository
}

func NewListenService(listenRepo repository.ListenRepository, assetRepo repository.AssetRepository) *ListenService {
	return &ListenService{
		listenRepo: listenRepo,
		assetRepo:  assetRepo,
	}
}

// RecordListenInput describes one play. ListenerID is nil for anonymous plays.
type RecordListenInput struct {
	AssetID    uint64
	ListenerID *uint64
	RemoteIP   string
	Source     string
}

// RecordListen stores the play against the asset's current owner.
func (s *ListenService) RecordListen(input RecordListenInput) (*models.Listen, error) {
	asset, err := s.assetRepo.FindByID(input.AssetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to find asset: %w", err)
	}
	if !asset.Published && (input.ListenerID == nil || *input.ListenerID != asset.UserID) {
		return nil, ErrAssetNotFound
	}

	listen := &models.Listen{
		AssetID:      asset.ID,
		ListenerID:   input.ListenerID,
		TrackOwnerID: asset.UserID,
		Source:       input.Source,
		RemoteIP:     input.RemoteIP,
	}
	if err := s.listenRepo.Create(listen); err != nil {
		return nil, fmt.Errorf("failed to record listen: %w", err)
	}
	return listen, nil
}
