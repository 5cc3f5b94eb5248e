package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dquispe/screening-api/config"
	"github.com/rs/zerolog/log"
)

// CaptchaService verifies a CAPTCHA proof against the external verifier.
// One network call, no retry; a failed call surfaces as an error.
type CaptchaService interface {
	Verify(ctx context.Context, token string) (bool, error)
}

type captchaService struct {
	verifyURL string
	secretKey string
	client    *http.Client
}

func NewCaptchaService(cfg *config.Config) CaptchaService {
	return &captchaService{
		verifyURL: cfg.Captcha.VerifyURL,
		secretKey: cfg.Captcha.SecretKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

func (s *captchaService) Verify(ctx context.Context, token string) (bool, error) {
	form := url.Values{}
	form.Set("secret", s.secretKey)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("building captcha verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Captcha verify call failed")
		return false, fmt.Errorf("captcha verify call failed: %w", err)
	}
	defer resp.Body.Close()

	var verify siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verify); err != nil {
		log.Error().Err(err).Msg("Captcha verify response unreadable")
		return false, fmt.Errorf("decoding captcha verify response: %w", err)
	}

	if !verify.Success {
		log.Warn().Strs("error_codes", verify.ErrorCodes).Msg("Captcha verification rejected")
	}
	return verify.Success, nil
}
