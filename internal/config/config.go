package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App         AppConfig
	Discord     DiscordConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Logger      LoggerConfig
	Admin       AdminConfig
	Cache       CacheConfig
	Reputation  ReputationConfig
	Leaderboard LeaderboardConfig
	Staff       []StaffRoleConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// DiscordConfig holds gateway credentials and guild binding.
type DiscordConfig struct {
	Token            string
	GuildID          string
	RegisterCommands bool
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AdminConfig defines authentication parameters for the admin HTTP API.
type AdminConfig struct {
	PasswordHash          string
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// CacheConfig controls the role membership cache.
type CacheConfig struct {
	RefreshIntervalSeconds int
	AbandonTimeoutSeconds  int
}

// ReputationConfig controls point thresholds and award cooldowns.
type ReputationConfig struct {
	PromotionThreshold  int
	DemotionThreshold   int
	AwardCooldownSec    int
	MaxPointsPerAward   int
	HistoryPageSize     int
	NotificationChannel string
}

// LeaderboardConfig controls the mirrored leaderboard message.
type LeaderboardConfig struct {
	ChannelID       string
	Size            int
	IntervalSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	staff, err := LoadStaffHierarchy()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "staffrep-bot"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Discord: DiscordConfig{
			Token:            os.Getenv("DISCORD_TOKEN"),
			GuildID:          os.Getenv("DISCORD_GUILD_ID"),
			RegisterCommands: getEnvAsBool("DISCORD_REGISTER_COMMANDS", true),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Admin: AdminConfig{
			PasswordHash:          os.Getenv("ADMIN_PASSWORD_HASH"),
			JWTSecret:             getEnv("ADMIN_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("ADMIN_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Cache: CacheConfig{
			RefreshIntervalSeconds: getEnvAsInt("ROLE_CACHE_REFRESH_SECONDS", 300),
			AbandonTimeoutSeconds:  getEnvAsInt("ROLE_CACHE_ABANDON_SECONDS", 120),
		},
		Reputation: ReputationConfig{
			PromotionThreshold:  getEnvAsInt("REP_PROMOTION_THRESHOLD", 50),
			DemotionThreshold:   getEnvAsInt("REP_DEMOTION_THRESHOLD", -10),
			AwardCooldownSec:    getEnvAsInt("REP_AWARD_COOLDOWN_SECONDS", 60),
			MaxPointsPerAward:   getEnvAsInt("REP_MAX_POINTS_PER_AWARD", 10),
			HistoryPageSize:     getEnvAsInt("REP_HISTORY_PAGE_SIZE", 10),
			NotificationChannel: os.Getenv("REP_NOTIFICATION_CHANNEL_ID"),
		},
		Leaderboard: LeaderboardConfig{
			ChannelID:       os.Getenv("LEADERBOARD_CHANNEL_ID"),
			Size:            getEnvAsInt("LEADERBOARD_SIZE", 10),
			IntervalSeconds: getEnvAsInt("LEADERBOARD_INTERVAL_SECONDS", 600),
		},
		Staff: staff,
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// RefreshInterval returns the role cache refresh period.
func (c CacheConfig) RefreshInterval() time.Duration {
	if c.RefreshIntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// AbandonTimeout returns how long an in-flight refresh may run before it is
// considered abandoned and its guard cleared.
func (c CacheConfig) AbandonTimeout() time.Duration {
	if c.AbandonTimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.AbandonTimeoutSeconds) * time.Second
}

// AwardCooldown returns the per-manager/target award cooldown.
func (r ReputationConfig) AwardCooldown() time.Duration {
	if r.AwardCooldownSec <= 0 {
		return 0
	}
	return time.Duration(r.AwardCooldownSec) * time.Second
}

// Interval returns the leaderboard mirror period.
func (l LeaderboardConfig) Interval() time.Duration {
	if l.IntervalSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(l.IntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
