package logger_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chanio/chanio/configuration"
	"github.com/chanio/chanio/logger"
)

func TestNewRootLogger(t *testing.T) {
	log, err := logger.NewRootLogger(logger.DefaultCfg)
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNewRootLoggerInvalidLevel(t *testing.T) {
	cfg := logger.DefaultCfg
	cfg.Level = "chatty"

	_, err := logger.NewRootLogger(cfg)
	require.Error(t, err)
}

func TestNewRootLoggerInvalidEncoding(t *testing.T) {
	cfg := logger.DefaultCfg
	cfg.Encoding = "xml"

	_, err := logger.NewRootLogger(cfg)
	require.Error(t, err)
}

func TestNewRootLoggerFromConfiguration(t *testing.T) {
	config := configuration.New()
	require.NoError(t, config.Set(logger.ConfigurationKeyLevel, "debug"))
	require.NoError(t, config.Set(logger.ConfigurationKeyEncoding, "json"))

	log, err := logger.NewRootLoggerFromConfiguration(config)
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestWrappedLoggerNilSafe(t *testing.T) {
	wrapped := logger.NewWrappedLogger(nil)

	require.Nil(t, wrapped.Logger())
	require.Nil(t, wrapped.LoggerNamed("sub"))

	// none of these may panic without an underlying logger
	wrapped.LogDebug("debug")
	wrapped.LogDebugf("debug %d", 1)
	wrapped.LogInfo("info")
	wrapped.LogWarn("warn")
	wrapped.LogError("error")
}

func TestWrappedLoggerDelegates(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	wrapped := logger.NewWrappedLogger(zap.New(core).Sugar())

	wrapped.LogDebugf("read %d bytes", 42)
	wrapped.LogInfo("opened")

	require.Equal(t, 2, logs.Len())
	require.Equal(t, "read 42 bytes", logs.All()[0].Message)
}
