package dto

import (
	"encoding/json"

	"github.com/dquispe/screening-api/internal/detector"
)

type CheckDNIRequest struct {
	DNI          string `json:"dni"`
	CaptchaToken string `json:"captchaToken"`
}

type GenerateTokenRequest struct {
	DNI  string `json:"dni" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type ValidateTokenRequest struct {
	Token string `json:"token"`
}

type TestSessionRequest struct {
	Action    string `json:"action" binding:"required,oneof=start check"`
	DNI       string `json:"dni"`
	SessionID string `json:"sessionId"`
}

type SubmitTestRequest struct {
	DNI            string   `json:"dni"`
	Name           string   `json:"name"`
	Answers        []string `json:"answers"`
	TimeExpired    bool     `json:"timeExpired"`
	CompletionTime int      `json:"completionTime"`
	SessionID      string   `json:"sessionId"`
	// AIDetectionResults is whatever analysis the client ran locally. Stored
	// verbatim as advisory metadata; the server recomputes its own pass.
	AIDetectionResults json.RawMessage `json:"aiDetectionResults,omitempty"`
}

type DetectAIRequest struct {
	Text   string              `json:"text"`
	Events []detector.KeyEvent `json:"events,omitempty"`
}

type ValidateCaptchaRequest struct {
	Token string `json:"token"`
}
