package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Mongo        MongoConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Analytics    AnalyticsConfig
	Leaderboard  LeaderboardConfig
	Gamification GamificationConfig
	Quiz         QuizConfig
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AnalyticsConfig governs cache behaviour and cost controls for the
// teacher analytics endpoints.
type AnalyticsConfig struct {
	CacheTTL          time.Duration
	TimeOnTaskQuizCap int
	AtRiskScore       float64
	AtRiskCompletion  float64
	FanOutConcurrency int
}

// LeaderboardConfig tunes the peer leaderboard builder.
type LeaderboardConfig struct {
	CacheTTL   time.Duration
	MaxEntries int
}

// GamificationConfig holds the point weights for derived rewards.
type GamificationConfig struct {
	PointsPerModule       int
	PointsPerOnTimeSubmit int
	StreakBadgeMinDays    int
}

// QuizConfig carries quiz-level defaults applied when a quiz document
// omits them.
type QuizConfig struct {
	DefaultPassingPercent int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Mongo = MongoConfig{
		URI:            v.GetString("MONGO_URI"),
		Database:       v.GetString("MONGO_DATABASE"),
		ConnectTimeout: parseDuration(v.GetString("MONGO_CONNECT_TIMEOUT"), 10*time.Second),
		MaxPoolSize:    v.GetUint64("MONGO_MAX_POOL_SIZE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Analytics = AnalyticsConfig{
		CacheTTL:          parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 5*time.Minute),
		TimeOnTaskQuizCap: v.GetInt("ANALYTICS_TIME_ON_TASK_QUIZ_CAP"),
		AtRiskScore:       v.GetFloat64("ANALYTICS_AT_RISK_SCORE"),
		AtRiskCompletion:  v.GetFloat64("ANALYTICS_AT_RISK_COMPLETION"),
		FanOutConcurrency: v.GetInt("ANALYTICS_FAN_OUT_CONCURRENCY"),
	}

	cfg.Leaderboard = LeaderboardConfig{
		CacheTTL:   parseDuration(v.GetString("LEADERBOARD_CACHE_TTL"), 2*time.Minute),
		MaxEntries: v.GetInt("LEADERBOARD_MAX_ENTRIES"),
	}

	cfg.Gamification = GamificationConfig{
		PointsPerModule:       v.GetInt("POINTS_PER_MODULE"),
		PointsPerOnTimeSubmit: v.GetInt("POINTS_PER_ON_TIME_SUBMIT"),
		StreakBadgeMinDays:    v.GetInt("STREAK_BADGE_MIN_DAYS"),
	}

	cfg.Quiz = QuizConfig{
		DefaultPassingPercent: v.GetInt("QUIZ_DEFAULT_PASSING_PERCENT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "educonnect")
	v.SetDefault("MONGO_MAX_POOL_SIZE", 50)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ANALYTICS_TIME_ON_TASK_QUIZ_CAP", 12)
	v.SetDefault("ANALYTICS_AT_RISK_SCORE", 75)
	v.SetDefault("ANALYTICS_AT_RISK_COMPLETION", 50)
	v.SetDefault("ANALYTICS_FAN_OUT_CONCURRENCY", 5)

	v.SetDefault("LEADERBOARD_MAX_ENTRIES", 50)

	v.SetDefault("POINTS_PER_MODULE", 10)
	v.SetDefault("POINTS_PER_ON_TIME_SUBMIT", 20)
	v.SetDefault("STREAK_BADGE_MIN_DAYS", 3)

	v.SetDefault("QUIZ_DEFAULT_PASSING_PERCENT", 60)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
