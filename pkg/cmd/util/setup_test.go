package util

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/mpapenbr/pacelock/log"
	"github.com/mpapenbr/pacelock/pkg/config"
	"github.com/mpapenbr/pacelock/pkg/iracing"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, ParseLogLevel("warn", log.InfoLevel), log.WarnLevel)
	assert.Equal(t, ParseLogLevel("nonsense", log.InfoLevel), log.InfoLevel)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, ParseDuration("2s", time.Minute), 2*time.Second)
	assert.Equal(t, ParseDuration("soon", time.Minute), time.Minute)
}

func TestSetupLogger(t *testing.T) {
	defer log.ResetDefault(log.Default())

	config.LogFormat = "json"
	config.LogLevel = "debug"
	config.LogFilter = ""
	logger, err := SetupLogger()
	assert.NilError(t, err)
	assert.Equal(t, logger.Level(), log.DebugLevel)
	assert.Equal(t, log.Default(), logger)

	config.LogFilter = "bogus:*"
	_, err = SetupLogger()
	assert.ErrorContains(t, err, "invalid log filter")
	config.LogFilter = ""
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv(config.UsernameEnv, "driver@example.com")
	t.Setenv(config.PasswordEnv, "secret")

	creds, err := LoadCredentials(filepath.Join(t.TempDir(), "missing.env"))
	assert.NilError(t, err)
	assert.Equal(t, creds.Username, "driver@example.com")
	assert.Equal(t, config.Username, "driver@example.com")
}

func TestLoadCredentialsEnvFileDoesNotOverride(t *testing.T) {
	t.Setenv(config.UsernameEnv, "env@example.com")
	t.Setenv(config.PasswordEnv, "")
	assert.NilError(t, os.Unsetenv(config.PasswordEnv))

	envFile := filepath.Join(t.TempDir(), ".env")
	assert.NilError(t, os.WriteFile(envFile, []byte(
		config.UsernameEnv+"=file@example.com\n"+config.PasswordEnv+"=fromfile\n"),
		0o600))

	creds, err := LoadCredentials(envFile)
	assert.NilError(t, err)
	assert.Equal(t, creds.Username, "env@example.com")
	assert.Equal(t, creds.Password, "fromfile")
}

func TestLoadCredentialsMissing(t *testing.T) {
	t.Setenv(config.UsernameEnv, "")
	t.Setenv(config.PasswordEnv, "")

	_, err := LoadCredentials("")
	assert.ErrorIs(t, err, iracing.ErrMissingCredentials)
}

func TestHelpTexts(t *testing.T) {
	var buf bytes.Buffer
	PrintMissingCredentials(&buf)
	assert.Assert(t, is.Contains(buf.String(), "ERROR: iRacing credentials not found!"))
	assert.Assert(t, is.Contains(buf.String(), "export IRACING_USERNAME=your_username"))
	assert.Assert(t, is.Contains(buf.String(), "2. Create a .env file with:"))

	buf.Reset()
	PrintLegacyAuthRequired(&buf)
	assert.Assert(t, is.Contains(buf.String(), "enable legacy authentication"))
}
