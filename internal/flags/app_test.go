package flags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApp_NewFlagSet(t *testing.T) {
	t.Parallel()

	app := NewApp()

	flagSet := app.NewFlagSet()

	args := []string{
		"--version",
		"--log-level", "error",
		"--log-file", "again.log",
		"--no-color",
		"--env-file", ".env",
	}

	err := flagSet.Parse(args)
	assert.NoError(t, err)

	assert.True(t, app.Version, "Version flag should be true when set")
	assert.Equal(t, "error", app.LogLevel)
	assert.Equal(t, "again.log", app.LogFile)
	assert.True(t, app.NoColor)
	assert.Equal(t, ".env", app.EnvFile)
}

func TestApp_NewFlagSet_DefaultValues(t *testing.T) {
	t.Parallel()

	app := NewApp()

	flagSet := app.NewFlagSet()

	err := flagSet.Parse([]string{})
	assert.NoError(t, err)

	assert.False(t, app.Version, "Version flag should default to false")
	assert.Equal(t, "info", app.LogLevel, "Log level flag should default to info")
	assert.Empty(t, app.LogFile)
	assert.False(t, app.NoColor)
	assert.Empty(t, app.EnvFile)
}
