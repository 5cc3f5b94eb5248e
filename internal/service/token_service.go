package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dquispe/screening-api/config"
	"github.com/dquispe/screening-api/internal/model"
	"github.com/dquispe/screening-api/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TokenService issues opaque single-use access tokens and redeems each one
// exactly once.
type TokenService interface {
	Generate(dni, name string) (string, error)
	Redeem(token string) (*model.AccessToken, error)
}

type tokenService struct {
	store repository.Store
	cfg   *config.Config
	now   func() time.Time
}

func NewTokenService(store repository.Store, cfg *config.Config) TokenService {
	return &tokenService{store: store, cfg: cfg, now: time.Now}
}

// Generate mints a 256-bit random hex token. The token has no structure; its
// only property is that it cannot be guessed or enumerated.
func (s *tokenService) Generate(dni, name string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		log.Error().Err(err).Msg("Token generation: crypto/rand failed")
		return "", fmt.Errorf("generating token: %w", err)
	}
	token := hex.EncodeToString(raw)

	record := &model.AccessToken{
		Token:     token,
		DNI:       dni,
		Name:      name,
		Used:      false,
		ExpiresAt: s.now().Add(s.cfg.TokenLifetime()),
	}
	if err := s.store.Tokens().Create(record); err != nil {
		log.Error().Err(err).Str("dni", dni).Msg("Token generation: persisting token failed")
		return "", fmt.Errorf("persisting token: %w", err)
	}

	log.Info().Str("dni", dni).Time("expires_at", record.ExpiresAt).Msg("Access token issued")
	return token, nil
}

// Redeem performs the one-shot exchange. The locked read and the used-flag
// flip happen in one transaction, so of two racing redemptions exactly one
// returns the payload and the other sees ErrTokenUsed.
func (s *tokenService) Redeem(token string) (*model.AccessToken, error) {
	var redeemed *model.AccessToken

	err := s.store.Transaction(func(r repository.Registry) error {
		record, err := r.Tokens().FindForUpdate(token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenUnknown
			}
			log.Error().Err(err).Msg("Token redemption: lookup failed")
			return fmt.Errorf("loading token: %w", err)
		}

		if record.Used {
			return ErrTokenUsed
		}
		if s.now().After(record.ExpiresAt) {
			return ErrTokenExpired
		}

		usedAt := s.now()
		record.Used = true
		record.UsedAt = &usedAt
		if err := r.Tokens().Update(record); err != nil {
			log.Error().Err(err).Msg("Token redemption: marking token used failed")
			return fmt.Errorf("marking token used: %w", err)
		}

		redeemed = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("dni", redeemed.DNI).Msg("Access token redeemed")
	return redeemed, nil
}
