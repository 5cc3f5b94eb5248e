package repository

import (
	"github.com/dquispe/screening-api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TokenRepository interface {
	Create(token *model.AccessToken) error
	// FindForUpdate loads the token row with a row-level lock. Only valid
	// inside Store.Transaction; the lock is what serializes two concurrent
	// redemptions of the same token.
	FindForUpdate(token string) (*model.AccessToken, error)
	Update(token *model.AccessToken) error
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *model.AccessToken) error {
	return r.db.Create(token).Error
}

func (r *tokenRepository) FindForUpdate(token string) (*model.AccessToken, error) {
	var record model.AccessToken
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token = ?", token).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *tokenRepository) Update(token *model.AccessToken) error {
	return r.db.Save(token).Error
}
