// Package config assembles the application configuration from defaults,
// an optional .env file, CLI flags and environment variables (in increasing
// priority) and validates the result.
package config

import (
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	RunAddr                    string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel                   string        `env:"LOG_LEVEL" validate:"loglevel"`
	DBFileName                 string        `env:"FILE_STORAGE_PATH" validate:"omitempty,filepath"`
	DatabaseDSN                string        `env:"DATABASE_DSN"`
	DBConnectionTimeout        time.Duration `env:"DB_CONNECTION_TIMEOUT"`
	MigrationsDir              string        `env:"MIGRATIONS_DIR"`
	AuthCookieName             string        `env:"AUTH_COOKIE_NAME"`
	AuthCookieSigningSecretKey string        `env:"AUTH_COOKIE_SIGNING_SECRET_KEY" validate:"base64url"`
	FlagValue                  string        `env:"FLAG"`
	TrustedSubnet              string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	LogLevel:            "info",
	DBConnectionTimeout: 10 * time.Second,
	MigrationsDir:       "migrations",
	AuthCookieName:      "strkeeper_session",
	// Development-only key; production deployments override it via env.
	AuthCookieSigningSecretKey: "c3Rya2VlcGVyLWRldi1zaWduaW5nLWtleQ==",
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (values *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(values)
}

// InitOption is a functional option for New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing disables CLI flags parsing; used by tests which
// run under `go test` with its own flag set.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds the configuration: defaults, then .env, then CLI flags,
// then environment variables. The result is validated before being returned.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	if !options.disableFlagsParsing {
		flag.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run server")
		flag.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
		flag.StringVar(&values.DBFileName, "f", values.DBFileName, "JSON file name with database")
		flag.StringVar(&values.DatabaseDSN, "d", values.DatabaseDSN, "a string with the database connection details")
		flag.StringVar(&values.TrustedSubnet, "t", values.TrustedSubnet, "CIDR of the subnet trusted to query internal stats")
		flag.Parse()
	}

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}

	mergeNonEmpty(values, &valuesFromEnv)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}

func mergeNonEmpty(values, overrides *Config) {
	if overrides.RunAddr != "" {
		values.RunAddr = overrides.RunAddr
	}
	if overrides.LogLevel != "" {
		values.LogLevel = overrides.LogLevel
	}
	if overrides.DBFileName != "" {
		values.DBFileName = overrides.DBFileName
	}
	if overrides.DatabaseDSN != "" {
		values.DatabaseDSN = overrides.DatabaseDSN
	}
	if overrides.DBConnectionTimeout != 0 {
		values.DBConnectionTimeout = overrides.DBConnectionTimeout
	}
	if overrides.MigrationsDir != "" {
		values.MigrationsDir = overrides.MigrationsDir
	}
	if overrides.AuthCookieName != "" {
		values.AuthCookieName = overrides.AuthCookieName
	}
	if overrides.AuthCookieSigningSecretKey != "" {
		values.AuthCookieSigningSecretKey = overrides.AuthCookieSigningSecretKey
	}
	if overrides.FlagValue != "" {
		values.FlagValue = overrides.FlagValue
	}
	if overrides.TrustedSubnet != "" {
		values.TrustedSubnet = overrides.TrustedSubnet
	}
}
