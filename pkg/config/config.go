package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Backend       BackendConfig
	Checkout      CheckoutConfig
	Cache         CacheConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"POS_APP_ENV" required:"true"`
	Port           string   `envconfig:"POS_APP_PORT" required:"true"`
	LogLevel       string   `envconfig:"POS_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"POS_LOG_WARN_STACK" default:"false"`
	AllowedOrigins []string `envconfig:"POS_ALLOWED_ORIGINS" default:"http://localhost:3000,app://pos"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"POS_DB_DSN"`
	SQLitePath string `envconfig:"POS_DB_SQLITE_PATH" default:"pos-terminal.db"`

	Host     string `envconfig:"POS_DB_HOST"`
	Port     int    `envconfig:"POS_DB_PORT" default:"5432"`
	User     string `envconfig:"POS_DB_USER"`
	Password string `envconfig:"POS_DB_PASSWORD"`
	Name     string `envconfig:"POS_DB_NAME"`
	SSLMode  string `envconfig:"POS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"POS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"POS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"POS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"POS_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"POS_REDIS_URL"`
	Address      string        `envconfig:"POS_REDIS_ADDR"`
	Password     string        `envconfig:"POS_REDIS_PASSWORD"`
	DB           int           `envconfig:"POS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"POS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"POS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"POS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"POS_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"POS_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"POS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"POS_JWT_ISSUER" default:"pos-terminal"`
	ExpirationMinutes int    `envconfig:"POS_JWT_EXPIRATION_MINUTES" default:"720"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"POS_ARGON_MEMORY_KB" default:"19456"`
	ArgonTime        int `envconfig:"POS_ARGON_TIME" default:"2"`
	ArgonParallelism int `envconfig:"POS_ARGON_PARALLELISM" default:"1"`
	ArgonSaltLen     int `envconfig:"POS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"POS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"POS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"POS_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"POS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"POS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"POS_AUTO_MIGRATE" default:"false"`
}

type BackendConfig struct {
	BaseURL string        `envconfig:"POS_BACKEND_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"POS_BACKEND_TIMEOUT" default:"10s"`
	APIKey  string        `envconfig:"POS_BACKEND_API_KEY"`
}

type CheckoutConfig struct {
	// PointsConversionRate is the currency units one loyalty point is worth.
	PointsConversionRate int64  `envconfig:"POS_POINTS_CONVERSION_RATE" default:"100"`
	Currency             string `envconfig:"POS_CURRENCY" default:"IDR"`
	TerminalID           string `envconfig:"POS_TERMINAL_ID" default:"terminal-1"`
}

type CacheConfig struct {
	CatalogTTL time.Duration `envconfig:"POS_CACHE_CATALOG_TTL" default:"5m"`
}

func (c *Config) validate() error {
	var err error
	if c.Checkout.PointsConversionRate <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvPointsConversionRate))
	}
	if _, parseErr := url.ParseRequestURI(c.Backend.BaseURL); parseErr != nil {
		err = multierr.Append(err, fmt.Errorf("%s is not a valid url: %w", EnvBackendBaseURL, parseErr))
	}
	if c.Redis.URL == "" && c.Redis.Address == "" {
		err = multierr.Append(err, fmt.Errorf("either %s or %s is required", EnvRedisURL, EnvRedisAddr))
	}
	if c.JWT.ExpirationMinutes <= 0 {
		err = multierr.Append(err, errors.New("jwt expiration minutes must be positive"))
	}
	return err
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
