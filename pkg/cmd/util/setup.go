package util

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pgx-contrib/pgxtrace"
	"github.com/subosito/gotenv"

	"github.com/mpapenbr/pacelock/log"
	"github.com/mpapenbr/pacelock/pkg/config"
	"github.com/mpapenbr/pacelock/pkg/db/postgres"
	"github.com/mpapenbr/pacelock/pkg/iracing"
	"github.com/mpapenbr/pacelock/pkg/repository/factory"
	"github.com/mpapenbr/pacelock/pkg/utils"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// ParseDuration returns defaultVal if value is not a valid duration.
func ParseDuration(value string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn("Invalid duration value. Using default",
			log.String("value", value),
			log.Duration("default", defaultVal))
		return defaultVal
	}
	return d
}

// SetupLogger creates the logger from the resolved config values and
// installs it as default logger.
func SetupLogger() (*log.Logger, error) {
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1)}
	if config.LogFilter != "" {
		filter, err := log.WithFilter(config.LogFilter)
		if err != nil {
			return nil, fmt.Errorf("invalid log filter: %w", err)
		}
		opts = append(opts, filter)
	}
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(os.Stderr,
			ParseLogLevel(config.LogLevel, log.InfoLevel), opts...)
	default:
		logger = log.DevLogger(os.Stderr,
			ParseLogLevel(config.LogLevel, log.InfoLevel), opts...)
	}
	log.ResetDefault(logger)
	return logger, nil
}

// LoadCredentials reads the iRacing credentials from the environment.
// Values from envFile are added unless the variable is already set.
func LoadCredentials(envFile string) (iracing.Credentials, error) {
	if envFile != "" {
		if err := gotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return iracing.Credentials{}, fmt.Errorf("read %s: %w", envFile, err)
		}
	}
	config.Username = os.Getenv(config.UsernameEnv)
	config.Password = os.Getenv(config.PasswordEnv)
	creds := iracing.Credentials{Username: config.Username, Password: config.Password}
	return creds, creds.Validate()
}

// NewClient creates an API client from the resolved config values.
func NewClient(logger *log.Logger) (*iracing.Client, error) {
	creds, err := LoadCredentials(config.EnvFile)
	if err != nil {
		return nil, err
	}
	return iracing.New(creds,
		iracing.WithBaseURL(config.APIURL),
		iracing.WithAuthURL(config.AuthURL),
		iracing.WithTimeout(ParseDuration(config.HTTPTimeout, 30*time.Second)),
		iracing.WithLogger(logger.Named("iracing")),
	)
}

// OpenBackend opens the configured database. For postgres the database
// server is awaited first.
func OpenBackend(ctx context.Context, logger *log.Logger) (*factory.Backend, error) {
	opts := []factory.Option{factory.WithLogger(logger.Named("db"))}
	if factory.IsPostgres(config.DB) {
		if err := WaitForDB(ctx); err != nil {
			return nil, err
		}
		pgTracer := pgxtrace.CompositeQueryTracer{
			postgres.NewMyTracer(logger.Named("sql"), log.DebugLevel),
		}
		if config.EnableTelemetry {
			pgTracer = append(pgTracer, postgres.NewOtlpTracer())
		}
		opts = append(opts, factory.WithPoolOptions(postgres.WithTracer(pgTracer)))
	}
	return factory.Open(ctx, config.DB, opts...)
}

// WaitForDB waits until the postgres server referenced by config.DB
// accepts connections.
func WaitForDB(ctx context.Context) error {
	addr := utils.ExtractFromDBURL(config.DB)
	if addr == "" {
		return fmt.Errorf("cannot extract database address from %q", config.DB)
	}
	timeout := ParseDuration(config.WaitForServices, 15*time.Second)
	if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	return nil
}

// SetupTelemetry enables tracing if configured. The returned value may be
// nil and is safe to shutdown either way.
func SetupTelemetry(ctx context.Context) *config.Telemetry {
	if !config.EnableTelemetry {
		return nil
	}
	log.Info("Enabling telemetry", log.String("endpoint", config.TelemetryEndpoint))
	telemetry, err := config.SetupTelemetry(ctx)
	if err != nil {
		log.Warn("Could not setup telemetry", log.ErrorField(err))
		return nil
	}
	return telemetry
}
