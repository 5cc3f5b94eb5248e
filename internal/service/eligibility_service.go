package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/dquispe/screening-api/config"
	"github.com/dquispe/screening-api/internal/model"
	"github.com/dquispe/screening-api/internal/ratelimit"
	"github.com/dquispe/screening-api/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var dniPattern = regexp.MustCompile(`^\d{8}$`)

// EligibilityService decides whether a dni may receive an access token.
// Checks run cheapest-first: rate limit, format, block cache, captcha,
// attempt count, prior submission, candidate lookup. Every lookup outcome
// appends an attempt record.
type EligibilityService interface {
	Check(ctx context.Context, dni, captchaToken, clientIP string) (string, error)
}

type eligibilityService struct {
	store   repository.Store
	limiter ratelimit.Limiter
	blocks  ratelimit.BlockCache
	captcha CaptchaService
	cfg     *config.Config
}

func NewEligibilityService(
	store repository.Store,
	limiter ratelimit.Limiter,
	blocks ratelimit.BlockCache,
	captcha CaptchaService,
	cfg *config.Config,
) EligibilityService {
	return &eligibilityService{
		store:   store,
		limiter: limiter,
		blocks:  blocks,
		captcha: captcha,
		cfg:     cfg,
	}
}

func (s *eligibilityService) Check(ctx context.Context, dni, captchaToken, clientIP string) (string, error) {
	if decision := s.limiter.Allow(clientIP); !decision.Allowed {
		log.Warn().Str("ip", clientIP).Time("reset_at", decision.ResetAt).Msg("Eligibility check rate limited")
		return "", &RateLimitError{ResetAt: decision.ResetAt}
	}

	if !dniPattern.MatchString(dni) {
		return "", ErrInvalidDNI
	}

	// The block cache saves the store round-trip for a dni that already
	// exhausted its attempts within the block window.
	if s.blocks.Blocked(dni) {
		return "", ErrDNIBlocked
	}

	if s.cfg.Captcha.Enabled {
		if captchaToken == "" {
			return "", ErrCaptchaRequired
		}
		ok, err := s.captcha.Verify(ctx, captchaToken)
		if err != nil {
			return "", fmt.Errorf("verifying captcha: %w", err)
		}
		if !ok {
			return "", ErrCaptchaInvalid
		}
	}

	attempts, err := s.store.Attempts().CountByDNI(dni)
	if err != nil {
		log.Error().Err(err).Str("dni", dni).Msg("Eligibility: counting attempts failed")
		return "", fmt.Errorf("counting attempts: %w", err)
	}
	if attempts >= int64(s.cfg.Test.MaxAttempts) {
		s.blocks.Block(dni, s.cfg.BlockDuration())
		log.Warn().Str("dni", dni).Int64("attempts", attempts).Msg("Eligibility: attempt limit exhausted, dni blocked")
		return "", ErrDNIBlocked
	}

	if _, err := s.store.Submissions().FindByDNI(dni); err == nil {
		return "", ErrAlreadyCompleted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error().Err(err).Str("dni", dni).Msg("Eligibility: submission lookup failed")
		return "", fmt.Errorf("checking prior submission: %w", err)
	}

	candidate, err := s.store.Candidates().FindByDNI(dni)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordAttempt(dni, clientIP, false)
			return "", ErrDNINotFound
		}
		log.Error().Err(err).Str("dni", dni).Msg("Eligibility: candidate lookup failed")
		return "", fmt.Errorf("looking up candidate: %w", err)
	}

	s.recordAttempt(dni, clientIP, true)
	return candidate.Name, nil
}

func (s *eligibilityService) recordAttempt(dni, clientIP string, success bool) {
	attempt := &model.Attempt{DNI: dni, IP: clientIP, Success: success}
	if err := s.store.Attempts().Create(attempt); err != nil {
		// The attempt trail is audit data; losing one entry must not fail
		// the check itself.
		log.Error().Err(err).Str("dni", dni).Bool("success", success).Msg("Eligibility: recording attempt failed")
	}
}
