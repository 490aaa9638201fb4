package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
	Trailer  TrailerConfig  `mapstructure:"trailer"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Sessions RedisInstanceConfig `mapstructure:"sessions"`
	Cache    RedisInstanceConfig `mapstructure:"cache"`
}

type RedisInstanceConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type Neo4jConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		WatchEvents  string `mapstructure:"watch_events"`
		RatingEvents string `mapstructure:"rating_events"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	SessionCookie string        `mapstructure:"session_cookie"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SnapshotConfig locates the offline catalog and similarity tables.
// SimilaritySource is "file" or "neo4j".
type SnapshotConfig struct {
	CatalogPath      string `mapstructure:"catalog_path"`
	FeaturesPath     string `mapstructure:"features_path"`
	ScoresPath       string `mapstructure:"scores_path"`
	SimilaritySource string `mapstructure:"similarity_source"`
	Validate         bool   `mapstructure:"validate"`
}

type RankingConfig struct {
	PopularLimit     int      `mapstructure:"popular_limit"`
	PopularMinVotes  int      `mapstructure:"popular_min_votes"`
	LatestLimit      int      `mapstructure:"latest_limit"`
	LatestMinVotes   int      `mapstructure:"latest_min_votes"`
	SimilarLimit     int      `mapstructure:"similar_limit"`
	GenreLimit       int      `mapstructure:"genre_limit"`
	CategoryLimit    int      `mapstructure:"category_limit"`
	CategoryMinVotes int      `mapstructure:"category_min_votes"`
	HistoryWindow    int      `mapstructure:"history_window"`
	TopGenreLimit    int      `mapstructure:"top_genre_limit"`
	TopGenreMinCount int      `mapstructure:"top_genre_min_count"`
	DefaultGenres    []string `mapstructure:"default_genres"`
}

type TrailerConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	APIBaseURL     string        `mapstructure:"api_base_url"`
	SearchBaseURL  string        `mapstructure:"search_base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	DefaultURL     string        `mapstructure:"default_url"`
}

type SecurityConfig struct {
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig bounds requests per client IP. A zero rate disables it.
type RateLimitConfig struct {
	RequestsPerSec float64 `mapstructure:"requests_per_sec"`
	Burst          int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "development")

	// Database defaults
	v.SetDefault("database.url", "postgres://localhost:5432/reelrank")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_time", "15m")
	v.SetDefault("database.max_lifetime", "1h")
	v.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	v.SetDefault("redis.sessions.url", "localhost:6379")
	v.SetDefault("redis.sessions.max_retries", 3)
	v.SetDefault("redis.sessions.pool_size", 10)
	v.SetDefault("redis.sessions.timeout", "5s")
	v.SetDefault("redis.cache.url", "localhost:6379")
	v.SetDefault("redis.cache.max_retries", 3)
	v.SetDefault("redis.cache.pool_size", 5)
	v.SetDefault("redis.cache.timeout", "10s")

	// Neo4j defaults
	v.SetDefault("neo4j.url", "bolt://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "")

	// Kafka defaults
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topics.watch_events", "watch-events")
	v.SetDefault("kafka.topics.rating_events", "rating-events")

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.session_cookie", "reelrank_session")
	v.SetDefault("auth.session_ttl", "24h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Snapshot defaults
	v.SetDefault("snapshot.catalog_path", "./dataset/movies.json")
	v.SetDefault("snapshot.features_path", "./models/features_similarity.json")
	v.SetDefault("snapshot.scores_path", "./models/similarity_scores.json")
	v.SetDefault("snapshot.similarity_source", "file")
	v.SetDefault("snapshot.validate", true)

	// Ranking defaults
	v.SetDefault("ranking.popular_limit", 20)
	v.SetDefault("ranking.popular_min_votes", 10000)
	v.SetDefault("ranking.latest_limit", 12)
	v.SetDefault("ranking.latest_min_votes", 5000)
	v.SetDefault("ranking.similar_limit", 12)
	v.SetDefault("ranking.genre_limit", 20)
	v.SetDefault("ranking.category_limit", 20)
	v.SetDefault("ranking.category_min_votes", 10000)
	v.SetDefault("ranking.history_window", 15)
	v.SetDefault("ranking.top_genre_limit", 2)
	v.SetDefault("ranking.top_genre_min_count", 2)
	v.SetDefault("ranking.default_genres", []string{"Action", "Comedy"})

	// Trailer defaults
	v.SetDefault("trailer.api_key", "")
	v.SetDefault("trailer.api_base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("trailer.search_base_url", "https://www.youtube.com")
	v.SetDefault("trailer.timeout", "5s")
	v.SetDefault("trailer.requests_per_sec", 5.0)
	v.SetDefault("trailer.cache_ttl", "168h")
	v.SetDefault("trailer.default_url", "https://www.youtube.com/watch?v=5PSNL1qE6VY")

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"*"})
	v.SetDefault("security.rate_limit.requests_per_sec", 20.0)
	v.SetDefault("security.rate_limit.burst", 40)
}
