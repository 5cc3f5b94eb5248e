package repository

import (
	"github.com/dquispe/screening-api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmissionRepository interface {
	FindByDNI(dni string) (*model.Submission, error)
	// FindByDNIForUpdate locks the submission row for the dni so two
	// concurrent submits serialize on it. Only valid inside Store.Transaction.
	FindByDNIForUpdate(dni string) (*model.Submission, error)
	Save(submission *model.Submission) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) FindByDNI(dni string) (*model.Submission, error) {
	var submission model.Submission
	err := r.db.Where("dni = ?", dni).First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) FindByDNIForUpdate(dni string) (*model.Submission, error) {
	var submission model.Submission
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("dni = ?", dni).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) Save(submission *model.Submission) error {
	return r.db.Save(submission).Error
}
