package repository

import "gorm.io/gorm"

// Registry bundles the per-entity repositories. Inside Store.Transaction the
// registry hands back tx-scoped repositories, so a check-then-write expressed
// against it is all-or-nothing.
type Registry interface {
	Candidates() CandidateRepository
	Attempts() AttemptRepository
	Tokens() TokenRepository
	Sessions() SessionRepository
	Submissions() SubmissionRepository
	// LockKey serializes transactions sharing the same key. Row locks alone
	// cannot guard a check-then-create: FOR UPDATE on zero rows locks
	// nothing, so two racing creators would both pass the check. Only valid
	// inside Store.Transaction; the lock releases on commit or rollback.
	LockKey(key string) error
}

// Store is the single transactional primitive of the system. Token
// redemption, session start and submission all run their keyed
// check-then-write through Transaction; nothing else in the codebase opens
// a transaction.
type Store interface {
	Registry
	Transaction(fn func(Registry) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Candidates() CandidateRepository   { return NewCandidateRepository(s.db) }
func (s *gormStore) Attempts() AttemptRepository       { return NewAttemptRepository(s.db) }
func (s *gormStore) Tokens() TokenRepository           { return NewTokenRepository(s.db) }
func (s *gormStore) Sessions() SessionRepository       { return NewSessionRepository(s.db) }
func (s *gormStore) Submissions() SubmissionRepository { return NewSubmissionRepository(s.db) }

func (s *gormStore) LockKey(key string) error {
	return s.db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

func (s *gormStore) Transaction(fn func(Registry) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
