package service

import (
	"errors"
	"fmt"
	"time"
)

// Lifecycle failures carry the user-facing (Spanish) copy directly; the
// controller maps each one onto its HTTP status.
var (
	ErrInvalidDNI       = errors.New("DNI inválido")
	ErrDNIBlocked       = errors.New("Límite de intentos superado. Contacte al equipo de talento.")
	ErrAlreadyCompleted = errors.New("Ya completaste la prueba, espera los resultados.")
	ErrDNINotFound      = errors.New("DNI no encontrado")
	ErrCaptchaRequired  = errors.New("Captcha requerido")
	ErrCaptchaInvalid   = errors.New("Captcha inválido")
	ErrTokenUnknown     = errors.New("Token inválido")
	ErrTokenUsed        = errors.New("Token ya utilizado")
	ErrTokenExpired     = errors.New("Token expirado")
	ErrSessionNotFound  = errors.New("Sesión no encontrada")
	ErrAlreadySubmitted = errors.New("Ya envió sus respuestas")
)

// RateLimitError reports a 429 along with when the caller's window resets.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Demasiadas solicitudes. Intente después de: %s", e.ResetAt.Format(time.RFC3339))
}

// ValidationError is a user-correctable 400 with specific copy.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
