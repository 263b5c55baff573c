package repository

import (
	"github.com/yukikurage/soundshare-api/internal/database"
	"github.com/yukikurage/soundshare-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user. A user already carrying a deletion marker is
// stored as deleted.
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByLogin finds a user by login
func (r *GormUserRepository) FindByLogin(login string, withDeleted bool) (*models.User, error) {
	var user models.User
	err := r.db.Scopes(database.WithDeleted(withDeleted)).
		Where("login = ?", login).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByPerishableToken finds a user by activation token
func (r *GormUserRepository) FindByPerishableToken(token string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("perishable_token = ?", token).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsWithLoginOrEmail checks deleted rows too, since the unique indexes do
func (r *GormUserRepository) ExistsWithLoginOrEmail(login, email string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.User{}).
		Where("login = ? OR email = ?", login, email).
		Count(&count).Error
	return count > 0, err
}

// UpdateColumns writes columns on a live user
func (r *GormUserRepository) UpdateColumns(id uint64, columns map[string]interface{}) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).UpdateColumns(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
