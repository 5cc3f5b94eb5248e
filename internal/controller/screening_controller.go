package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/dquispe/screening-api/internal/dto"
	"github.com/dquispe/screening-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"

	"github.com/dquispe/screening-api/internal/detector"
)

type ScreeningController struct {
	eligibility service.EligibilityService
	tokens      service.TokenService
	sessions    service.SessionService
	submissions service.SubmissionService
	captcha     service.CaptchaService
}

func NewScreeningController(
	eligibility service.EligibilityService,
	tokens service.TokenService,
	sessions service.SessionService,
	submissions service.SubmissionService,
	captcha service.CaptchaService,
) *ScreeningController {
	return &ScreeningController{
		eligibility: eligibility,
		tokens:      tokens,
		sessions:    sessions,
		submissions: submissions,
		captcha:     captcha,
	}
}

// clientIP mirrors the proxy header chain the frontend deploy sits behind.
func clientIP(ctx *gin.Context) string {
	if ip := ctx.GetHeader("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := ctx.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := ctx.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// renderError maps every service failure onto the error taxonomy. Anything
// unrecognized is logged and surfaced as a generic 500 without internals.
func renderError(ctx *gin.Context, err error) {
	var rateErr *service.RateLimitError
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &rateErr):
		ctx.JSON(http.StatusTooManyRequests, dto.ErrorResponse{Success: false, Error: rateErr.Error()})
	case errors.As(err, &validationErr):
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: validationErr.Message})
	case errors.Is(err, service.ErrInvalidDNI),
		errors.Is(err, service.ErrCaptchaRequired),
		errors.Is(err, service.ErrCaptchaInvalid):
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrTokenUnknown),
		errors.Is(err, service.ErrTokenUsed),
		errors.Is(err, service.ErrTokenExpired):
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrDNIBlocked):
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrAlreadyCompleted):
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Success: false, Error: err.Error(), Completed: true})
	case errors.Is(err, service.ErrDNINotFound),
		errors.Is(err, service.ErrSessionNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrAlreadySubmitted):
		ctx.JSON(http.StatusConflict, dto.ErrorResponse{Success: false, Error: err.Error()})
	default:
		log.Error().Err(err).Str("path", ctx.FullPath()).Msg("Unhandled service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Success: false, Error: "Error interno"})
	}
}

// CheckDNI godoc
// @Summary Check whether a dni may take the test
// @Description Validates the dni, the captcha proof and the attempt budget, and returns the candidate's display name.
// @Tags Screening
// @Accept json
// @Produce json
// @Param request body dto.CheckDNIRequest true "dni and optional captcha proof"
// @Success 200 {object} dto.CheckDNIResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /check-dni [post]
func (c *ScreeningController) CheckDNI(ctx *gin.Context) {
	var req dto.CheckDNIRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "Datos incompletos"})
		return
	}

	name, err := c.eligibility.Check(ctx.Request.Context(), req.DNI, req.CaptchaToken, clientIP(ctx))
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.CheckDNIResponse{Success: true, Data: dto.CandidateData{Name: name}})
}

// GenerateToken godoc
// @Summary Issue a single-use access token
// @Tags Screening
// @Accept json
// @Produce json
// @Param request body dto.GenerateTokenRequest true "dni and display name"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /generate-token [post]
func (c *ScreeningController) GenerateToken(ctx *gin.Context) {
	var req dto.GenerateTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "Datos incompletos"})
		return
	}

	token, err := c.tokens.Generate(req.DNI, req.Name)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.TokenResponse{Success: true, Token: token})
}

// ValidateToken godoc
// @Summary Redeem an access token for the candidate's identity
// @Description One-shot exchange; the token is burned on success.
// @Tags Screening
// @Accept json
// @Produce json
// @Param request body dto.ValidateTokenRequest true "access token"
// @Success 200 {object} dto.ValidateTokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /validate-token [post]
func (c *ScreeningController) ValidateToken(ctx *gin.Context) {
	var req dto.ValidateTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Token == "" {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "Token requerido"})
		return
	}

	token, err := c.tokens.Redeem(req.Token)
	if err != nil {
		renderError(ctx, err)
		return
	}

	var data dto.TokenData
	if err := copier.Copy(&data, token); err != nil {
		log.Error().Err(err).Msg("ValidateToken: copying token payload failed")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Success: false, Error: "Error interno"})
		return
	}
	ctx.JSON(http.StatusOK, dto.ValidateTokenResponse{Success: true, Data: data})
}

// TestSession godoc
// @Summary Start or poll the server-side test timer
// @Description action=start returns the dni's session (creating it on first call); action=check returns remaining time for a session id.
// @Tags Screening
// @Accept json
// @Produce json
// @Param request body dto.TestSessionRequest true "action plus dni or sessionId"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /test-session [post]
func (c *ScreeningController) TestSession(ctx *gin.Context) {
	var req dto.TestSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "Acción inválida"})
		return
	}

	switch req.Action {
	case "start":
		if req.DNI == "" {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "DNI requerido"})
			return
		}
		state, err := c.sessions.Start(req.DNI)
		if err != nil {
			renderError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.SessionResponse{
			Success:       true,
			SessionID:     state.SessionID,
			TimeRemaining: state.TimeRemaining,
			StartTime:     state.StartTime.Format(time.RFC3339),
		})
	case "check":
		if req.SessionID == "" {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "SessionId requerido"})
			return
		}
		state, err := c.sessions.Check(req.SessionID)
		if err != nil {
			renderError(ctx, err)
			return
		}
		completed := state.Completed
		ctx.JSON(http.StatusOK, dto.SessionResponse{
			Success:       true,
			TimeRemaining: state.TimeRemaining,
			Completed:     &completed,
		})
	default:
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "Acción inválida"})
	}
}

// SubmitTest godoc
// @Summary Submit the final answer set
// @Description Exactly-once write per dni; 409 on a duplicate when resubmission is disabled.
// @Tags Screening
// @Accept json
// @Produce json
// @Param request body dto.SubmitTestRequest true "answers and session context"
// @Success 200 {object} dto.SubmitResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /submit-test [post]
func (c *ScreeningController) SubmitTest(ctx *gin.Context) {
	var req dto.SubmitTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "Datos incompletos"})
		return
	}

	if err := c.submissions.Submit(req); err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.SubmitResponse{Success: true})
}

// DetectAI godoc
// @Summary Score a text for AI-likeness
// @Description Advisory heuristic scoring; includes a typing-cadence analysis when keystroke events are supplied.
// @Tags Screening
// @Accept json
// @Produce json
// @Param request body dto.DetectAIRequest true "text plus optional keystroke timeline"
// @Success 200 {object} dto.DetectAIResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /detect-ai [post]
func (c *ScreeningController) DetectAI(ctx *gin.Context) {
	var req dto.DetectAIRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Text == "" {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "Texto requerido"})
		return
	}

	result := detector.DetectContent(req.Text)
	resp := dto.DetectAIResponse{
		AIProbability: result.AIProbability,
		Confidence:    result.Confidence,
		Details:       result.Details,
	}
	if len(req.Events) > 0 {
		typing := detector.AnalyzeTyping(req.Events, req.Text)
		resp.Typing = &typing
	}

	ctx.JSON(http.StatusOK, resp)
}

// ValidateCaptcha godoc
// @Summary Verify a captcha proof
// @Tags Screening
// @Accept json
// @Produce json
// @Param request body dto.ValidateCaptchaRequest true "captcha proof token"
// @Success 200 {object} dto.ValidateCaptchaResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /validate [post]
func (c *ScreeningController) ValidateCaptcha(ctx *gin.Context) {
	var req dto.ValidateCaptchaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Token == "" {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "Token requerido"})
		return
	}

	ok, err := c.captcha.Verify(ctx.Request.Context(), req.Token)
	if err != nil {
		renderError(ctx, err)
		return
	}
	if !ok {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "Captcha inválido"})
		return
	}

	ctx.JSON(http.StatusOK, dto.ValidateCaptchaResponse{Success: true})
}
