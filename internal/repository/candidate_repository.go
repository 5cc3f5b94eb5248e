package repository

import (
	"github.com/dquispe/screening-api/internal/model"
	"gorm.io/gorm"
)

type CandidateRepository interface {
	FindByDNI(dni string) (*model.Candidate, error)
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) FindByDNI(dni string) (*model.Candidate, error) {
	var candidate model.Candidate
	err := r.db.Where("dni = ?", dni).First(&candidate).Error
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}
