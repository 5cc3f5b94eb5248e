package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/dquispe/screening-api/config"
	"github.com/dquispe/screening-api/internal/model"
	"github.com/dquispe/screening-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SessionState is what both start and check hand back to the client. The
// server clock is the only input to TimeRemaining; the client's countdown is
// advisory.
type SessionState struct {
	SessionID     string
	TimeRemaining int
	Completed     bool
	StartTime     time.Time
}

// SessionService is the server-authoritative test timer. A session moves
// NONE → ACTIVE → COMPLETED; the COMPLETED transition belongs to the
// submission transaction, never to this service.
type SessionService interface {
	Start(dni string) (*SessionState, error)
	Check(sessionID string) (*SessionState, error)
}

type sessionService struct {
	store repository.Store
	cfg   *config.Config
	now   func() time.Time
}

func NewSessionService(store repository.Store, cfg *config.Config) SessionService {
	return &sessionService{store: store, cfg: cfg, now: time.Now}
}

// Start returns the dni's active session if one exists, creating one
// otherwise. The check-then-create runs in one transaction under the dni's
// key lock, so two concurrent starts converge on a single session.
func (s *sessionService) Start(dni string) (*SessionState, error) {
	var state *SessionState

	err := s.store.Transaction(func(r repository.Registry) error {
		// The per-dni lock is what serializes two concurrent starts: the
		// row lock below is vacuous while no active session row exists yet.
		if err := r.LockKey(dni); err != nil {
			log.Error().Err(err).Str("dni", dni).Msg("Session start: acquiring dni lock failed")
			return fmt.Errorf("locking dni: %w", err)
		}

		existing, err := r.Sessions().FindActiveByDNIForUpdate(dni)
		if err == nil {
			state = s.derive(existing)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Str("dni", dni).Msg("Session start: active session lookup failed")
			return fmt.Errorf("looking up active session: %w", err)
		}

		session := &model.TestSession{
			ID:        uuid.NewString(),
			DNI:       dni,
			StartTime: s.now(),
			Completed: false,
		}
		if err := r.Sessions().Create(session); err != nil {
			log.Error().Err(err).Str("dni", dni).Msg("Session start: creating session failed")
			return fmt.Errorf("creating session: %w", err)
		}

		state = s.derive(session)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("dni", dni).Str("session_id", state.SessionID).Int("time_remaining", state.TimeRemaining).Msg("Session started or resumed")
	return state, nil
}

func (s *sessionService) Check(sessionID string) (*SessionState, error) {
	session, err := s.store.Sessions().FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		log.Error().Err(err).Str("session_id", sessionID).Msg("Session check: lookup failed")
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return s.derive(session), nil
}

// derive recomputes remaining time from the stored start and the server
// clock. It floors at zero and never trusts anything client-supplied.
func (s *sessionService) derive(session *model.TestSession) *SessionState {
	elapsed := int(s.now().Sub(session.StartTime).Seconds())
	remaining := int(s.cfg.TestDuration().Seconds()) - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return &SessionState{
		SessionID:     session.ID,
		TimeRemaining: remaining,
		Completed:     session.Completed,
		StartTime:     session.StartTime,
	}
}
