package config

import (
	"os"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	Firebase   FirebaseConfig
	Incentive  IncentiveConfig
	Email      EmailConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

// IncentiveConfig holds the money rules of the order and reward flows.
// Amounts are whole rupees.
type IncentiveConfig struct {
	DeliveryCharge        int64
	FreeDeliveryThreshold int64
	WalletCapPercent      float64 // max share of the pre-wallet total redeemable from wallet
	ScratchMinPercent     float64
	ScratchMaxPercent     float64
	ReferrerBonus         int64
	RefereeBonus          int64
	WelcomeBonus          int64
}

type EmailConfig struct {
	Endpoint         string
	APIKey           string
	FromAddress      string
	ReferralLinkBase string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         envOr("PORT", "8080"),
			Env:          envOr("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             envOr("DB_DSN", "crumble:crumble@tcp(localhost:3306)/crumble?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  envOr("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: envOr("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "crumble",
		},
		OAuth: OAuthConfig{
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  envOr("GOOGLE_REDIRECT_URL", "https://crumble.example.com/api/v1/auth/google/callback"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"),
		},
		Incentive: IncentiveConfig{
			DeliveryCharge:        50,
			FreeDeliveryThreshold: 500,
			WalletCapPercent:      0.10,
			ScratchMinPercent:     0.04,
			ScratchMaxPercent:     0.07,
			ReferrerBonus:         50,
			RefereeBonus:          25,
			WelcomeBonus:          100,
		},
		Email: EmailConfig{
			Endpoint:         os.Getenv("EMAIL_API_ENDPOINT"),
			APIKey:           os.Getenv("EMAIL_API_KEY"),
			FromAddress:      envOr("EMAIL_FROM", "hello@crumble.example.com"),
			ReferralLinkBase: envOr("REFERRAL_LINK_BASE", "https://crumble.example.com/refer"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
