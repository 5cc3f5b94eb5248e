package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server    Server
	Database  Database
	Captcha   Captcha
	Test      Test
	RateLimit RateLimit
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type Captcha struct {
	Enabled   bool
	SiteKey   string
	SecretKey string
	VerifyURL string
}

type Test struct {
	DurationMinutes int
	MaxAttempts     int
	TotalQuestions  int
	MaxAnswerLength int
	AllowResubmit   bool
	BlockMinutes    int
}

type RateLimit struct {
	MaxRequests   int
	WindowMinutes int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DATABASE_HOST", "localhost")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "postgres")
	viper.SetDefault("DATABASE_NAME", "screening")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify")
	viper.SetDefault("TEST_DURATION_MINUTES", 10)
	viper.SetDefault("MAX_ATTEMPTS", 3)
	viper.SetDefault("TOTAL_QUESTIONS", 7)
	viper.SetDefault("MAX_ANSWER_LENGTH", 200)
	viper.SetDefault("DNI_BLOCK_MINUTES", 60)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 10)
	viper.SetDefault("RATE_LIMIT_WINDOW_MINUTES", 5)

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")

	config.Captcha.Enabled = viper.GetBool("ENABLE_CAPTCHA")
	config.Captcha.SiteKey = viper.GetString("RECAPTCHA_SITE_KEY")
	config.Captcha.SecretKey = viper.GetString("RECAPTCHA_SECRET_KEY")
	config.Captcha.VerifyURL = viper.GetString("RECAPTCHA_VERIFY_URL")

	config.Test.DurationMinutes = viper.GetInt("TEST_DURATION_MINUTES")
	config.Test.MaxAttempts = viper.GetInt("MAX_ATTEMPTS")
	config.Test.TotalQuestions = viper.GetInt("TOTAL_QUESTIONS")
	config.Test.MaxAnswerLength = viper.GetInt("MAX_ANSWER_LENGTH")
	config.Test.AllowResubmit = viper.GetBool("ALLOW_RESUBMIT")
	config.Test.BlockMinutes = viper.GetInt("DNI_BLOCK_MINUTES")

	config.RateLimit.MaxRequests = viper.GetInt("RATE_LIMIT_REQUESTS")
	config.RateLimit.WindowMinutes = viper.GetInt("RATE_LIMIT_WINDOW_MINUTES")

	log.Info().Str("port", config.Server.Port).Bool("captcha", config.Captcha.Enabled).Msg("Config loaded")
	return &config, nil
}

// TestDuration is the single source for the test window length. Session start,
// session check and token expiry all derive from it.
func (c *Config) TestDuration() time.Duration {
	return time.Duration(c.Test.DurationMinutes) * time.Minute
}

// TokenLifetime is the test duration plus a fixed one-minute margin so a token
// issued right before the test starts outlives the whole window.
func (c *Config) TokenLifetime() time.Duration {
	return c.TestDuration() + time.Minute
}

func (c *Config) BlockDuration() time.Duration {
	return time.Duration(c.Test.BlockMinutes) * time.Minute
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowMinutes) * time.Minute
}
