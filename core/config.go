package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "MEDATLAS"

type (
	Config struct {
		Env              string `validate:"required,oneof=DEV TEST QA PROD"`
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string `validate:"required"`
		SecretKey        string `validate:"required,min=16"`
		FrontendBaseURL  string `validate:"required,url"`
		DefaultFromEmail mail.Address
		RollbarToken     string
		SendgridApiKey   string

		// PasswordResetTimeout is rounded down to whole days.
		PasswordResetTimeout time.Duration `validate:"gt=0"`

		Server   ServerConfig
		Database DatabaseConfig
		Place    PlaceConfig
		Review   ReviewConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string `validate:"required"`
		DebugAddress              string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration `validate:"gt=0"`
		JWTExpirationDelta        time.Duration `validate:"gt=0"`
		JWTRefreshExpirationDelta time.Duration `validate:"gt=0"`
		LoginRateLimit            float64       `validate:"gt=0"` // requests per second per client IP
		LoginRateBurst            int           `validate:"gt=0"`
	}

	DatabaseConfig struct {
		Engine        string `validate:"required,oneof=postgres memory"`
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		MaxOpenConns  int
	}

	PlaceConfig struct {
		CacheTTL time.Duration `validate:"gt=0"`
	}

	ReviewConfig struct {
		PreviewLimit int `validate:"gte=0"`
	}
)

func (dc DatabaseConfig) Address() string {
	if dc.Port == 0 {
		return dc.Host
	}
	return dc.Host + ":" + strconv.Itoa(dc.Port)
}

func (c *Config) IsProduction() bool { return c.Env == "PROD" }

// NewConfig reads the configuration from defaults, an optional `config/.env.<env>` file
// and MEDATLAS_* environment variables, in increasing order of precedence.
func NewConfig() (*Config, error) {
	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v := viper.New()
	setDefaults(v, env)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("default_from_email"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing default_from_email")
	}

	conf := &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         env == "TEST",
		AppName:          v.GetString("app_name"),
		SecretKey:        v.GetString("secret_key"),
		FrontendBaseURL:  strings.TrimRight(v.GetString("frontend_base_url"), "/"),
		DefaultFromEmail: *from,
		RollbarToken:     v.GetString("rollbar_token"),
		SendgridApiKey:   v.GetString("sendgrid_api_key"),

		PasswordResetTimeout: v.GetDuration("password_reset_timeout"),

		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugAddress:              v.GetString("server.debug_address"),
			ReadTimeout:               v.GetDuration("server.read_timeout"),
			WriteTimeout:              v.GetDuration("server.write_timeout"),
			ShutdownTimeout:           v.GetDuration("server.shutdown_timeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwt_expiration_delta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwt_refresh_expiration_delta"),
			LoginRateLimit:            v.GetFloat64("server.login_rate_limit"),
			LoginRateBurst:            v.GetInt("server.login_rate_burst"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.admin_user"),
			AdminPassword: v.GetString("database.admin_password"),
			DisableTLS:    v.GetBool("database.disable_tls"),
			MaxOpenConns:  v.GetInt("database.max_open_conns"),
		},
		Place: PlaceConfig{
			CacheTTL: v.GetDuration("place.cache_ttl"),
		},
		Review: ReviewConfig{
			PreviewLimit: v.GetInt("review.preview_limit"),
		},
	}

	if err = validator.New().Struct(conf); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	return conf, nil
}

func setDefaults(v *viper.Viper, env string) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("app_name", "MedAtlas")
	v.SetDefault("secret_key", "dev-only-7c1e4f0a9b2d-secret")
	v.SetDefault("password_reset_timeout", 3*24*time.Hour)
	v.SetDefault("frontend_base_url", "http://localhost:3000")
	v.SetDefault("default_from_email", "MedAtlas <noreply@localhost>")
	v.SetDefault("rollbar_token", "")
	v.SetDefault("sendgrid_api_key", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debug_address", ":4000")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.jwt_expiration_delta", 7*24*time.Hour)
	v.SetDefault("server.jwt_refresh_expiration_delta", 30*24*time.Hour)
	v.SetDefault("server.login_rate_limit", 1.0)
	v.SetDefault("server.login_rate_burst", 5)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "medatlas")
	v.SetDefault("database.user", "medatlas")
	v.SetDefault("database.password", "medatlas")
	v.SetDefault("database.admin_user", "postgres")
	v.SetDefault("database.admin_password", "postgres")
	v.SetDefault("database.disable_tls", env == "DEV" || env == "TEST")
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("place.cache_ttl", 10*time.Minute)
	v.SetDefault("review.preview_limit", 3)
}

// configDir returns the directory holding the .env files; MEDATLAS_CONFIG_DIR overrides it.
func configDir() string {
	if dir := os.Getenv(envPrefix + "_CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}
