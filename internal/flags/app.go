package flags

import "github.com/spf13/pflag"

// App holds the flags that configure the CLI itself rather than the retry
// policy.
type App struct {
	Version  bool
	LogLevel string
	LogFile  string
	NoColor  bool
	EnvFile  string
}

func NewApp() *App {
	return &App{}
}

func (f *App) NewFlagSet() *pflag.FlagSet {
	flagSet := &pflag.FlagSet{}

	flagSet.BoolVarP(&f.Version, "version", "V",
		false,
		"Display version information.")
	flagSet.StringVar(&f.LogLevel, "log-level",
		"info",
		"Log level for retry reports. Log levels are: debug, info, warn, error.")
	flagSet.StringVar(&f.LogFile, "log-file",
		"",
		"Also write JSON logs to this file, rotated by size.")
	flagSet.BoolVar(&f.NoColor, "no-color",
		false,
		"Disable colored console logs.")
	flagSet.StringVar(&f.EnvFile, "env-file",
		"",
		"Load KEY=VALUE pairs from this file into the command's environment.")

	return flagSet
}
