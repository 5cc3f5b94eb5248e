package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dquispe/screening-api/config"
	"github.com/dquispe/screening-api/internal/detector"
	"github.com/dquispe/screening-api/internal/dto"
	"github.com/dquispe/screening-api/internal/model"
	"github.com/dquispe/screening-api/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Answers shorter than this carry too little signal for the statistical
// features, so the server-side recompute skips them.
const minDetectionLength = 50

// SubmissionService writes the final answer set exactly once per dni (or
// overwrites it when resubmission is explicitly allowed), and completes the
// session in the same transaction.
type SubmissionService interface {
	Submit(req dto.SubmitTestRequest) error
}

type submissionService struct {
	store repository.Store
	cfg   *config.Config
	now   func() time.Time
}

func NewSubmissionService(store repository.Store, cfg *config.Config) SubmissionService {
	return &submissionService{store: store, cfg: cfg, now: time.Now}
}

func (s *submissionService) Submit(req dto.SubmitTestRequest) error {
	if err := s.validate(req); err != nil {
		return err
	}

	report := s.buildReport(req)

	err := s.store.Transaction(func(r repository.Registry) error {
		// Two concurrent first submits both see no row without this lock;
		// with it, the race loser re-reads after the winner commits and
		// lands on the conflict (or resubmit) path.
		if err := r.LockKey(req.DNI); err != nil {
			log.Error().Err(err).Str("dni", req.DNI).Msg("Submit: acquiring dni lock failed")
			return fmt.Errorf("locking dni: %w", err)
		}

		existing, err := r.Submissions().FindByDNIForUpdate(req.DNI)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Str("dni", req.DNI).Msg("Submit: submission lookup failed")
			return fmt.Errorf("loading submission: %w", err)
		}
		exists := err == nil

		if exists && !s.cfg.Test.AllowResubmit {
			return ErrAlreadySubmitted
		}

		var submission model.Submission
		if err := copier.Copy(&submission, &req); err != nil {
			log.Error().Err(err).Msg("Submit: copying request to model failed")
			return fmt.Errorf("preparing submission: %w", err)
		}
		submission.SubmittedAt = s.now()
		submission.Detection = report
		if exists {
			submission.Resubmitted = true
			submission.PreviousSubmissions = existing.PreviousSubmissions + 1
		}

		if err := r.Submissions().Save(&submission); err != nil {
			// A duplicate-key violation means another transaction won the
			// dni's row between our read and this write.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadySubmitted
			}
			log.Error().Err(err).Str("dni", req.DNI).Msg("Submit: saving submission failed")
			return fmt.Errorf("saving submission: %w", err)
		}

		if req.SessionID != "" {
			if err := s.completeSession(r, req.SessionID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("dni", req.DNI).Bool("time_expired", req.TimeExpired).Msg("Submission stored")
	return nil
}

func (s *submissionService) validate(req dto.SubmitTestRequest) error {
	if req.DNI == "" || req.Name == "" || req.Answers == nil {
		return &ValidationError{Message: "Datos incompletos"}
	}
	if len(req.Answers) != s.cfg.Test.TotalQuestions {
		return &ValidationError{Message: "Número incorrecto de respuestas"}
	}
	for i, answer := range req.Answers {
		if len(answer) > s.cfg.Test.MaxAnswerLength {
			return &ValidationError{Message: fmt.Sprintf("Respuesta %d inválida", i+1)}
		}
	}
	// A forced submit on expiry may carry partial or empty answers; a
	// voluntary one may not.
	if !req.TimeExpired {
		for _, answer := range req.Answers {
			if strings.TrimSpace(answer) == "" {
				return &ValidationError{Message: "Todas las respuestas son requeridas"}
			}
		}
	}
	return nil
}

// buildReport runs the server-side detector pass over every answer long
// enough to score, keeping whatever the client sent alongside it. The report
// is advisory; it can never fail the submission.
func (s *submissionService) buildReport(req dto.SubmitTestRequest) *model.HeuristicReport {
	var scores []model.AnswerScore
	for i, answer := range req.Answers {
		if len(answer) < minDetectionLength {
			continue
		}
		result := detector.DetectContent(answer)
		scores = append(scores, model.AnswerScore{
			Index:         i,
			AIProbability: result.AIProbability,
			Confidence:    result.Confidence,
			Findings:      result.Details.PatternAnalysis.Findings,
		})
	}
	if scores == nil && len(req.AIDetectionResults) == 0 {
		return nil
	}
	return &model.HeuristicReport{
		Server: scores,
		Client: req.AIDetectionResults,
	}
}

func (s *submissionService) completeSession(r repository.Registry, sessionID string) error {
	session, err := r.Sessions().FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		log.Error().Err(err).Str("session_id", sessionID).Msg("Submit: session lookup failed")
		return fmt.Errorf("loading session: %w", err)
	}

	completedAt := s.now()
	session.Completed = true
	session.CompletedAt = &completedAt
	if err := r.Sessions().Update(session); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Submit: completing session failed")
		return fmt.Errorf("completing session: %w", err)
	}
	return nil
}
