package repository

import (
	"github.com/dquispe/screening-api/internal/model"
	"gorm.io/gorm"
)

type AttemptRepository interface {
	Create(attempt *model.Attempt) error
	CountByDNI(dni string) (int64, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(attempt *model.Attempt) error {
	return r.db.Create(attempt).Error
}

func (r *attemptRepository) CountByDNI(dni string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Attempt{}).Where("dni = ?", dni).Count(&count).Error
	return count, err
}
