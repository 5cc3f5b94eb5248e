package service

import (
	"sync"

	"github.com/dquispe/screening-api/internal/model"
	"github.com/dquispe/screening-api/internal/repository"
	"gorm.io/gorm"
)

// memoryStore is a test double for the document store. A single mutex plays
// the role of the database's transaction serialization: Transaction holds it
// for the whole closure, so concurrent check-then-writes serialize exactly
// like row-locked transactions do against Postgres.
type memoryStore struct {
	mu   sync.Mutex
	data *memData
}

type memData struct {
	candidates  map[string]model.Candidate
	attempts    []model.Attempt
	tokens      map[string]model.AccessToken
	sessions    map[string]model.TestSession
	submissions map[string]model.Submission

	candidateLookups  int
	attemptCounts     int
	submissionLookups int

	// lockKeys records every key lock taken inside a transaction, in order.
	lockKeys []string
	// saveSubmissionErr, when set, is returned by the next submission Save.
	saveSubmissionErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: &memData{
		candidates:  make(map[string]model.Candidate),
		tokens:      make(map[string]model.AccessToken),
		sessions:    make(map[string]model.TestSession),
		submissions: make(map[string]model.Submission),
	}}
}

func (s *memoryStore) Transaction(fn func(repository.Registry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memRegistry{data: s.data})
}

// The non-transactional accessors take the lock per call.
func (s *memoryStore) Candidates() repository.CandidateRepository {
	return &memCandidates{data: s.data, mu: &s.mu}
}
func (s *memoryStore) Attempts() repository.AttemptRepository {
	return &memAttempts{data: s.data, mu: &s.mu}
}
func (s *memoryStore) Tokens() repository.TokenRepository {
	return &memTokens{data: s.data, mu: &s.mu}
}
func (s *memoryStore) Sessions() repository.SessionRepository {
	return &memSessions{data: s.data, mu: &s.mu}
}
func (s *memoryStore) Submissions() repository.SubmissionRepository {
	return &memSubmissions{data: s.data, mu: &s.mu}
}

func (s *memoryStore) LockKey(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.lockKeys = append(s.data.lockKeys, key)
	return nil
}

// memRegistry hands back lock-free repositories; Transaction already holds
// the store lock.
type memRegistry struct {
	data *memData
}

func (r *memRegistry) Candidates() repository.CandidateRepository { return &memCandidates{data: r.data} }
func (r *memRegistry) Attempts() repository.AttemptRepository     { return &memAttempts{data: r.data} }
func (r *memRegistry) Tokens() repository.TokenRepository         { return &memTokens{data: r.data} }
func (r *memRegistry) Sessions() repository.SessionRepository     { return &memSessions{data: r.data} }
func (r *memRegistry) Submissions() repository.SubmissionRepository {
	return &memSubmissions{data: r.data}
}

// The store mutex already serializes whole transactions, so the fake only
// records that the lock was requested.
func (r *memRegistry) LockKey(key string) error {
	r.data.lockKeys = append(r.data.lockKeys, key)
	return nil
}

func lock(mu *sync.Mutex) func() {
	if mu == nil {
		return func() {}
	}
	mu.Lock()
	return mu.Unlock
}

type memCandidates struct {
	data *memData
	mu   *sync.Mutex
}

func (m *memCandidates) FindByDNI(dni string) (*model.Candidate, error) {
	defer lock(m.mu)()
	m.data.candidateLookups++
	if candidate, ok := m.data.candidates[dni]; ok {
		c := candidate
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type memAttempts struct {
	data *memData
	mu   *sync.Mutex
}

func (m *memAttempts) Create(attempt *model.Attempt) error {
	defer lock(m.mu)()
	m.data.attempts = append(m.data.attempts, *attempt)
	return nil
}

func (m *memAttempts) CountByDNI(dni string) (int64, error) {
	defer lock(m.mu)()
	m.data.attemptCounts++
	var count int64
	for _, attempt := range m.data.attempts {
		if attempt.DNI == dni {
			count++
		}
	}
	return count, nil
}

type memTokens struct {
	data *memData
	mu   *sync.Mutex
}

func (m *memTokens) Create(token *model.AccessToken) error {
	defer lock(m.mu)()
	m.data.tokens[token.Token] = *token
	return nil
}

func (m *memTokens) FindForUpdate(token string) (*model.AccessToken, error) {
	defer lock(m.mu)()
	if record, ok := m.data.tokens[token]; ok {
		t := record
		return &t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memTokens) Update(token *model.AccessToken) error {
	defer lock(m.mu)()
	m.data.tokens[token.Token] = *token
	return nil
}

type memSessions struct {
	data *memData
	mu   *sync.Mutex
}

func (m *memSessions) Create(session *model.TestSession) error {
	defer lock(m.mu)()
	m.data.sessions[session.ID] = *session
	return nil
}

func (m *memSessions) FindByID(id string) (*model.TestSession, error) {
	defer lock(m.mu)()
	if session, ok := m.data.sessions[id]; ok {
		s := session
		return &s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memSessions) FindActiveByDNIForUpdate(dni string) (*model.TestSession, error) {
	defer lock(m.mu)()
	for _, session := range m.data.sessions {
		if session.DNI == dni && !session.Completed {
			s := session
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memSessions) Update(session *model.TestSession) error {
	defer lock(m.mu)()
	m.data.sessions[session.ID] = *session
	return nil
}

type memSubmissions struct {
	data *memData
	mu   *sync.Mutex
}

func (m *memSubmissions) FindByDNI(dni string) (*model.Submission, error) {
	return m.FindByDNIForUpdate(dni)
}

func (m *memSubmissions) FindByDNIForUpdate(dni string) (*model.Submission, error) {
	defer lock(m.mu)()
	m.data.submissionLookups++
	if submission, ok := m.data.submissions[dni]; ok {
		s := submission
		return &s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memSubmissions) Save(submission *model.Submission) error {
	defer lock(m.mu)()
	if err := m.data.saveSubmissionErr; err != nil {
		m.data.saveSubmissionErr = nil
		return err
	}
	m.data.submissions[submission.DNI] = *submission
	return nil
}
