package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server    ServerConfig    `env:",prefix=SERVER_"`
	Postgres  PostgresConfig  `env:",prefix=POSTGRES_"`
	Redis     RedisConfig     `env:",prefix=REDIS_"`
	JWT       JWTConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig `env:",prefix=RATE_LIMIT_"`
	CORS      CORSConfig      `env:",prefix=CORS_"`
	Env       string          `env:"NODE_ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host         string   `env:"HOST,default=localhost"`
	Port         string   `env:"PORT,default=5432"`
	User         string   `env:"USER,default=vidstream"`
	Password     string   `env:"PASSWORD,default=vidstream_password"`
	DBName       string   `env:"DB,default=vidstream_auth_db"`
	SSLMode      string   `env:"SSLMODE,default=disable"`
	MaxOpenConns int      `env:"MAX_OPEN_CONNS,default=10"`
	MaxIdleConns int      `env:"MAX_IDLE_CONNS,default=2"`
	ConnMaxIdle  Duration `env:"CONN_MAX_IDLE,default=5m"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// JWTConfig carries two independent signing secrets, one per token class,
// so a leaked refresh token can never pass as an access token and vice versa.
type JWTConfig struct {
	AccessSecret       string   `env:"JWT_ACCESS_SECRET_KEY,required"`
	RefreshSecret      string   `env:"JWT_REFRESH_SECRET_KEY,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRES,default=15m"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRES_DAYS,default=7"`
}

type SecurityConfig struct {
	BCryptCost       int      `env:"BCRYPT_COST,default=12"`
	MaxFailedLogins  int      `env:"MAX_FAILED_LOGINS,default=5"`
	LockoutDuration  Duration `env:"LOCKOUT_DURATION,default=15m"`
	RevokedRetention Duration `env:"REVOKED_RETENTION,default=24h"`
}

type RateLimitConfig struct {
	LoginRequests   int      `env:"LOGIN_REQUESTS,default=5"`
	RefreshRequests int      `env:"REFRESH_REQUESTS,default=30"`
	GeneralRequests int      `env:"GENERAL_REQUESTS,default=100"`
	Window          Duration `env:"WINDOW,default=15m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:5173"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,X-Requested-With"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// IsProduction reports whether the service runs with production hardening
// (SameSite=None cookies, production logger)
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.JWT.AccessSecret) < 32 {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET_KEY must be at least 32 characters long")
	}
	if len(config.JWT.RefreshSecret) < 32 {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET_KEY must be at least 32 characters long")
	}
	if config.JWT.AccessSecret == config.JWT.RefreshSecret {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET_KEY and JWT_REFRESH_SECRET_KEY must differ")
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
