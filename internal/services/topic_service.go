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
	ErrTopicNotFound     = errors.New("topic not found")
	ErrInvalidTopicTitle = errors.New("topic title cannot be empty")
)

// TopicService manages forum topics.
type TopicService struct {
	topicRepo repository.TopicRepository
	userRepo  repository.UserRepository
	runner    *CascadeRunner
}

func NewTopicService(topicRepo repository.TopicRepository, userRepo repository.UserRepository, runner *CascadeRunner) *TopicService {
	return &TopicService{
		topicRepo: topicRepo,
		userRepo:  userRepo,
		runner:    runner,
	}
}

func (s *TopicService) CreateTopic(ownerID uint64, title string) (*models.Topic, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidTopicTitle
	}

	topic := &models.Topic{UserID: ownerID, Title: title}
	if err := s.topicRepo.Create(topic); err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}
	return topic, nil
}

// DeleteTopic soft-deletes the topic and its comments.
func (s *TopicService) DeleteTopic(ctx context.Context, actorID, topicID uint64) (*cascade.Report, error) {
	topic, err := s.topicRepo.FindByID(topicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to find topic: %w", err)
	}

	if topic.UserID != actorID {
		actor, err := s.userRepo.FindByID(actorID)
		if err != nil || !actor.IsModerator {
			return nil, ErrTopicNotFound
		}
	}

	return s.runner.Run(ctx, cascade.Node{Kind: models.KindTopic, ID: topic.ID})
}
