package repository

import (
	"github.com/dquispe/screening-api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	Create(session *model.TestSession) error
	FindByID(id string) (*model.TestSession, error)
	// FindActiveByDNIForUpdate locks the active (completed=false) session for
	// the dni, if any. Only valid inside Store.Transaction; it is the guard
	// against two concurrent starts both creating sessions.
	FindActiveByDNIForUpdate(dni string) (*model.TestSession, error)
	Update(session *model.TestSession) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *model.TestSession) error {
	return r.db.Create(session).Error
}

func (r *sessionRepository) FindByID(id string) (*model.TestSession, error) {
	var session model.TestSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindActiveByDNIForUpdate(dni string) (*model.TestSession, error) {
	var session model.TestSession
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("dni = ? AND completed = ?", dni, false).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Update(session *model.TestSession) error {
	return r.db.Save(session).Error
}
