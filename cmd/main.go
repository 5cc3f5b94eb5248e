package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/dquispe/screening-api/config"
	"github.com/dquispe/screening-api/database"
	_ "github.com/dquispe/screening-api/docs" // Swagger docs
	"github.com/dquispe/screening-api/internal/controller"
	"github.com/dquispe/screening-api/internal/logger"
	"github.com/dquispe/screening-api/internal/model"
	"github.com/dquispe/screening-api/internal/ratelimit"
	"github.com/dquispe/screening-api/internal/repository"
	"github.com/dquispe/screening-api/internal/service"
)

// @title Screening Test API
// @version 1.0
// @description Timed online screening test: single-use access tokens, a server-authoritative session clock and exactly-once submissions.
// @host localhost:8080
// @BasePath /api
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
			repository.NewStore,
			NewRateLimiter,
			NewBlockCache,
		),

		fx.Provide(
			service.NewCaptchaService,
			service.NewEligibilityService,
			service.NewTokenService,
			service.NewSessionService,
			service.NewSubmissionService,
		),

		fx.Provide(
			controller.NewScreeningController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func NewRateLimiter(cfg *config.Config) ratelimit.Limiter {
	return ratelimit.NewWindowLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimitWindow())
}

func NewBlockCache() ratelimit.BlockCache {
	return ratelimit.NewMemoryBlockCache()
}

// RegisterRoutesAndStartServer wires the request surface and manages the
// server lifecycle through fx hooks.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	screeningCtrl *controller.ScreeningController,
) {
	api := router.Group("/api")
	{
		api.POST("/check-dni", screeningCtrl.CheckDNI)
		api.POST("/generate-token", screeningCtrl.GenerateToken)
		api.POST("/validate-token", screeningCtrl.ValidateToken)
		api.POST("/test-session", screeningCtrl.TestSession)
		api.POST("/submit-test", screeningCtrl.SubmitTest)
		api.POST("/detect-ai", screeningCtrl.DetectAI)
		api.POST("/validate", screeningCtrl.ValidateCaptcha)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Screening API server starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Candidate{},
		&model.Attempt{},
		&model.AccessToken{},
		&model.TestSession{},
		&model.Submission{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
