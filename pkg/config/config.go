package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
	Bootstrap     BootstrapConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.JWT.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BACKOFFICE_APP_ENV" required:"true"`
	Port         string `envconfig:"BACKOFFICE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BACKOFFICE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BACKOFFICE_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"BACKOFFICE_LOG_FORMAT" default:"json"`
	CookieDomain string `envconfig:"BACKOFFICE_COOKIE_DOMAIN"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BACKOFFICE_DB_DSN"`
	Driver string `envconfig:"BACKOFFICE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"BACKOFFICE_DB_HOST"`
	Port     int    `envconfig:"BACKOFFICE_DB_PORT" default:"5432"`
	User     string `envconfig:"BACKOFFICE_DB_USER"`
	Password string `envconfig:"BACKOFFICE_DB_PASSWORD"`
	Name     string `envconfig:"BACKOFFICE_DB_NAME"`
	SSLMode  string `envconfig:"BACKOFFICE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"BACKOFFICE_SQLITE_PATH" default:"backoffice.db"`

	MaxOpenConns    int           `envconfig:"BACKOFFICE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BACKOFFICE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BACKOFFICE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BACKOFFICE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery is the duration above which a statement is logged as a
	// warning. Zero disables slow query logging.
	SlowQuery  time.Duration `envconfig:"BACKOFFICE_DB_SLOW_QUERY" default:"200ms"`
	LogQueries bool          `envconfig:"BACKOFFICE_DB_LOG_QUERIES" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BACKOFFICE_REDIS_URL"`
	Address      string        `envconfig:"BACKOFFICE_REDIS_ADDR"`
	Password     string        `envconfig:"BACKOFFICE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BACKOFFICE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BACKOFFICE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BACKOFFICE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BACKOFFICE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BACKOFFICE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BACKOFFICE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the signing material for both halves of a session.
// Access and refresh tokens use separate secrets so a leaked refresh secret
// cannot mint access tokens.
type JWTConfig struct {
	AccessSecret           string `envconfig:"BACKOFFICE_JWT_ACCESS_SECRET" required:"true"`
	RefreshSecret          string `envconfig:"BACKOFFICE_JWT_REFRESH_SECRET" required:"true"`
	Issuer                 string `envconfig:"BACKOFFICE_JWT_ISSUER" default:"backoffice"`
	ExpirationMinutes      int    `envconfig:"BACKOFFICE_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"BACKOFFICE_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

func (j JWTConfig) validate() error {
	if j.AccessSecret == j.RefreshSecret {
		return fmt.Errorf("%s and %s must differ", EnvJWTAccessSecret, EnvJWTRefreshSecret)
	}
	if j.AccessTokenTTL() <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpirationMinutes)
	}
	if j.RefreshTokenTTL() <= j.AccessTokenTTL() {
		return fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", j.RefreshTokenTTL(), j.AccessTokenTTL())
	}
	return nil
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BACKOFFICE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BACKOFFICE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BACKOFFICE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BACKOFFICE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BACKOFFICE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"BACKOFFICE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"BACKOFFICE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"BACKOFFICE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"BACKOFFICE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite    bool `envconfig:"BACKOFFICE_USE_SQLITE" default:"false"`
	AutoMigrate  bool `envconfig:"BACKOFFICE_AUTO_MIGRATE" default:"false"`
	SeedDefaults bool `envconfig:"BACKOFFICE_SEED_DEFAULTS" default:"false"`
}

// BootstrapConfig describes the first super admin created by the seed step.
type BootstrapConfig struct {
	AdminEmail    string `envconfig:"BACKOFFICE_BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `envconfig:"BACKOFFICE_BOOTSTRAP_ADMIN_PASSWORD"`
	AdminName     string `envconfig:"BACKOFFICE_BOOTSTRAP_ADMIN_NAME" default:"Super Admin"`
}

// Enabled reports whether enough data is present to seed an admin.
func (b BootstrapConfig) Enabled() bool {
	return strings.TrimSpace(b.AdminEmail) != "" && b.AdminPassword != ""
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite || db.DSN != "" {
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
