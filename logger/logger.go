package logger

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chanio/chanio/configuration"
)

// Logger instances are used to write log messages. It is a type alias of zap.SugaredLogger.
type Logger = zap.SugaredLogger

// Level is a type alias of zapcore.Level.
type Level = zapcore.Level

var (
	// ErrGlobalLoggerAlreadyInitialized is returned when the global logger was already initialized.
	ErrGlobalLoggerAlreadyInitialized = errors.New("global logger already initialized")

	root        = zap.NewNop().Sugar()
	initialized bool
)

// InitGlobalLogger initializes the global logger from the provided configuration.
// It can only be called once.
func InitGlobalLogger(config *configuration.Configuration) error {
	if initialized {
		return ErrGlobalLoggerAlreadyInitialized
	}

	rootLogger, err := NewRootLoggerFromConfiguration(config)
	if err != nil {
		return err
	}

	root = rootLogger
	initialized = true

	return nil
}

// NewRootLoggerFromConfiguration creates a new root logger from the provided configuration.
func NewRootLoggerFromConfiguration(config *configuration.Configuration, opts ...zap.Option) (*Logger, error) {
	cfg := DefaultCfg

	if val := config.String(ConfigurationKeyLevel); val != "" {
		cfg.Level = val
	}
	if val := config.Get(ConfigurationKeyDisableCaller); val != nil {
		cfg.DisableCaller = val.(bool)
	}
	if val := config.Get(ConfigurationKeyDisableStacktrace); val != nil {
		cfg.DisableStacktrace = val.(bool)
	}
	if val := config.String(ConfigurationKeyEncoding); val != "" {
		cfg.Encoding = val
	}
	if val := config.Strings(ConfigurationKeyOutputPaths); len(val) > 0 {
		cfg.OutputPaths = val
	}

	return NewRootLogger(cfg, opts...)
}

// NewRootLogger creates a new root logger from the provided configuration.
func NewRootLogger(cfg Config, opts ...zap.Option) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}

	var encoder zapcore.Encoder
	switch cfg.Encoding {
	case "console":
		encoder = zapcore.NewConsoleEncoder(defaultEncoderConfig)
	case "json":
		encoder = zapcore.NewJSONEncoder(defaultEncoderConfig)
	default:
		return nil, errors.Errorf("unknown log encoding %q", cfg.Encoding)
	}

	writeSyncer, _, err := zap.Open(cfg.OutputPaths...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log outputs")
	}

	options := opts
	if !cfg.DisableCaller {
		options = append(options, zap.AddCaller())
	}
	if !cfg.DisableStacktrace {
		options = append(options, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return zap.New(zapcore.NewCore(encoder, writeSyncer, level), options...).Sugar(), nil
}

// SetGlobalLogger replaces the global logger, e.g. for testing purposes.
func SetGlobalLogger(logger *Logger) {
	root = logger
	initialized = true
}

// NewLogger returns a new named child of the global root logger.
func NewLogger(name string) *Logger {
	return root.Named(name)
}

// NewNopLogger returns a logger that never writes out logs.
func NewNopLogger() *Logger {
	return zap.NewNop().Sugar()
}
