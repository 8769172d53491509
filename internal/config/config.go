package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// MinSecretLength is the shortest JWT_SECRET accepted at startup.
	MinSecretLength = 32
	// MaxBcryptCost bounds hashing latency on the login path.
	MaxBcryptCost = 14
	minBcryptCost = 4

	UserStoreMongo    = "mongo"
	UserStorePostgres = "postgres"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port        string
	CORSOrigins []string
	LogLevel    string
	LogFormat   string

	UserStore    string
	MongoURI     string
	MongoDB      string
	PostgresDSN  string
	StoreTimeout time.Duration

	RedisAddr        string
	RedisPassword    string
	LoginMaxAttempts int
	LoginWindow      time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	// parse problems are kept until Validate so every bad key is reported together
	parseErrs []string
}

// Error is returned by Validate when the configuration cannot be used to start the server.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func Load() *Config {
	c := &Config{
		Port:           getenv("PORT", "8080"),
		CORSOrigins:    splitList(getenv("CORS_ORIGINS", "http://localhost:1234,http://localhost:3000")),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "json"),
		UserStore:      getenv("USER_STORE", UserStoreMongo),
		MongoURI:       getenv("MONGO_URI", ""),
		MongoDB:        getenv("MONGO_DB", "myflix"),
		PostgresDSN:    getenv("POSTGRES_DSN", ""),
		RedisAddr:      lookupenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "movie-posters"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",
		JWTSecret:      os.Getenv("JWT_SECRET"),
	}
	c.StoreTimeout = c.duration("STORE_TIMEOUT", 5*time.Second)
	c.LoginWindow = c.duration("LOGIN_WINDOW", 15*time.Minute)
	c.TokenTTL = c.duration("TOKEN_TTL", 7*24*time.Hour)
	c.LoginMaxAttempts = c.integer("LOGIN_MAX_ATTEMPTS", 10)
	c.BcryptCost = c.integer("BCRYPT_COST", 10)
	return c
}

// Validate reports every problem that would keep the server from starting safely.
func (c *Config) Validate() error {
	problems := append([]string(nil), c.parseErrs...)

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < MinSecretLength {
		problems = append(problems, fmt.Sprintf("JWT_SECRET must be at least %d bytes", MinSecretLength))
	}
	if c.BcryptCost < minBcryptCost || c.BcryptCost > MaxBcryptCost {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and %d", minBcryptCost, MaxBcryptCost))
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, "TOKEN_TTL must be positive")
	}
	if c.StoreTimeout <= 0 {
		problems = append(problems, "STORE_TIMEOUT must be positive")
	}
	if c.LoginMaxAttempts <= 0 {
		problems = append(problems, "LOGIN_MAX_ATTEMPTS must be positive")
	}
	if c.LoginWindow <= 0 {
		problems = append(problems, "LOGIN_WINDOW must be positive")
	}

	switch c.UserStore {
	case UserStoreMongo:
	case UserStorePostgres:
		if c.PostgresDSN == "" {
			problems = append(problems, "POSTGRES_DSN is required when USER_STORE=postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("USER_STORE %q is not one of mongo, postgres", c.UserStore))
	}
	if c.MongoURI == "" {
		problems = append(problems, "MONGO_URI is required")
	}

	if len(problems) > 0 {
		return &Error{Problems: problems}
	}
	return nil
}

func (c *Config) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return d
}

func (c *Config) integer(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return n
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// lookupenv is getenv for optional services: an explicitly empty value is
// kept so it can switch the service off.
func lookupenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
