package dto

import "github.com/dquispe/screening-api/internal/detector"

// ErrorResponse is the uniform failure body. Completed marks the distinct
// "test already finished" eligibility failure so the client can redirect.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Completed bool   `json:"completed,omitempty"`
}

type CandidateData struct {
	Name string `json:"name"`
}

type CheckDNIResponse struct {
	Success bool          `json:"success"`
	Data    CandidateData `json:"data"`
}

type TokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type TokenData struct {
	DNI  string `json:"dni"`
	Name string `json:"name"`
}

type ValidateTokenResponse struct {
	Success bool      `json:"success"`
	Data    TokenData `json:"data"`
}

type SessionResponse struct {
	Success       bool   `json:"success"`
	SessionID     string `json:"sessionId,omitempty"`
	TimeRemaining int    `json:"timeRemaining"`
	Completed     *bool  `json:"completed,omitempty"`
	StartTime     string `json:"startTime,omitempty"`
}

type SubmitResponse struct {
	Success bool `json:"success"`
}

type DetectAIResponse struct {
	AIProbability float64                  `json:"aiProbability"`
	Confidence    string                   `json:"confidence"`
	Details       detector.ContentDetails  `json:"details"`
	Typing        *detector.TypingAnalysis `json:"typingAnalysis,omitempty"`
}

type ValidateCaptchaResponse struct {
	Success bool `json:"success"`
}
