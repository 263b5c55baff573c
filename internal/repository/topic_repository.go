package repository

import (
	"github.com/yukikurage/soundshare-api/internal/models"
	"gorm.io/gorm"
)

// GormTopicRepository is a GORM implementation of TopicRepository
type GormTopicRepository struct {
	db *gorm.DB
}

// NewTopicRepository creates a new TopicRepository
func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &GormTopicRepository{db: db}
}

func (r *GormTopicRepository) Create(topic *models.Topic) error {
	return r.db.Create(topic).Error
}

func (r *GormTopicRepository) FindByID(id uint64) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.First(&topic, id).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}
