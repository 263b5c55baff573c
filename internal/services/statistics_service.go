package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/yukikurage/soundshare-api/internal/repository"
	"gorm.io/gorm"
)

// ErrStatistics is returned when there is nothing to compute statistics from.
var ErrStatistics = errors.New("statistics unavailable: user has no assets")

// StatisticsService derives per-user listening statistics from counters.
type StatisticsService struct {
	userRepo  repository.UserRepository
	assetRepo repository.AssetRepository
	now       func() time.Time
}

func NewStatisticsService(userRepo repository.UserRepository, assetRepo repository.AssetRepository) *StatisticsService {
	return &StatisticsService{
		userRepo:  userRepo,
		assetRepo: assetRepo,
		now:       time.Now,
	}
}

// UserStats is the public statistics view of a user.
type UserStats struct {
	AssetsCount   int64 `json:"assets_count"`
	ListensCount  int64 `json:"listens_count"`
	ListensPerDay int64 `json:"listens_per_day"`
}

// ListensPerDay is listens_count divided by whole days since the first live
// asset, both rounded up.
func (s *StatisticsService) ListensPerDay(userID uint64) (int64, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to find user: %w", err)
	}

	first, err := s.assetRepo.FirstCreatedAt(user.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to find first asset: %w", err)
	}
	if first == nil {
		return 0, ErrStatistics
	}

	days := math.Ceil(s.now().Sub(*first).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return int64(math.Ceil(float64(user.ListensCount) / days)), nil
}

// Stats returns the statistics view for login.
func (s *StatisticsService) Stats(login string) (*UserStats, error) {
	user, err := s.userRepo.FindByLogin(login, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	stats := &UserStats{AssetsCount: user.AssetsCount, ListensCount: user.ListensCount}
	perDay, err := s.ListensPerDay(user.ID)
	switch {
	case err == nil:
		stats.ListensPerDay = perDay
	case !errors.Is(err, ErrStatistics):
		return nil, err
	}
	return stats, nil
}
