package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppCfg struct{ Env, Port, BaseURL string }
type DBCfg struct{ DSN string }
type RedisCfg struct{ Addr string }

type MpesaCfg struct {
	Environment    string // "sandbox" | "production"
	ShortCode      string
	ConsumerKey    string
	ConsumerSecret string
	Passkey        string
}

type SecurityCfg struct {
	RateLimitPerMin int
}

type Cfg struct {
	App   AppCfg
	DB    DBCfg
	Redis RedisCfg
	Mpesa MpesaCfg
	Sec   SecurityCfg
}

func Load() Cfg {
	// 1) Load .env into process env (if file exists)
	_ = godotenv.Load()

	// 2) Read from env via viper
	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", "sandbox")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("RATE_LIMIT_PER_MIN", 300)
	viper.SetDefault("TZ", "Africa/Nairobi")
	viper.SetDefault("MPESA_ENVIRONMENT", "sandbox")

	// Ensure TZ
	if tz := viper.GetString("TZ"); tz != "" {
		os.Setenv("TZ", tz)
	}

	cfg := Cfg{
		App: AppCfg{
			Env:     viper.GetString("APP_ENV"),
			Port:    viper.GetString("APP_PORT"),
			BaseURL: strings.TrimRight(viper.GetString("APP_BASE_URL"), "/"),
		},
		DB:    DBCfg{DSN: viper.GetString("DB_DSN")},
		Redis: RedisCfg{Addr: viper.GetString("REDIS_ADDR")},
		Mpesa: MpesaCfg{
			Environment:    strings.ToLower(strings.TrimSpace(viper.GetString("MPESA_ENVIRONMENT"))),
			ShortCode:      strings.TrimSpace(viper.GetString("MPESA_SHORTCODE")),
			ConsumerKey:    strings.TrimSpace(viper.GetString("MPESA_CONSUMER_KEY")),
			ConsumerSecret: strings.TrimSpace(viper.GetString("MPESA_CONSUMER_SECRET")),
			Passkey:        strings.TrimSpace(viper.GetString("MPESA_PASSKEY")),
		},
		Sec: SecurityCfg{
			RateLimitPerMin: viper.GetInt("RATE_LIMIT_PER_MIN"),
		},
	}

	// 3) Fail fast on required settings
	if cfg.DB.DSN == "" {
		log.Fatal().Msg("DB_DSN is required")
	}
	if cfg.Mpesa.Environment != "sandbox" && cfg.Mpesa.Environment != "production" {
		log.Fatal().Msg("MPESA_ENVIRONMENT must be sandbox|production")
	}

	return cfg
}
