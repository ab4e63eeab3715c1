package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/passkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-r string   AWS region of the parameter store
//	-t int      session idle timeout in minutes
//	-m int      max consecutive failed login attempts
//	-p int      password cache duration in seconds
//	-d string   local account database path
//	-l string   log level (debug, info, warn, error)
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-r", "-t", "-m", "-p", "-d", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Region, "r", cfg.Region, "AWS region of the parameter store")
	sessionTimeout := fs.Int("t", int(cfg.SessionTimeout.Minutes()), "session idle timeout (in minutes)")
	fs.IntVar(&cfg.MaxLoginAttempts, "m", cfg.MaxLoginAttempts, "max consecutive failed login attempts")
	cacheDuration := fs.Int("p", int(cfg.PasswordCacheDuration.Seconds()), "password cache duration (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local account database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SessionTimeout = time.Duration(*sessionTimeout) * time.Minute
	cfg.PasswordCacheDuration = time.Duration(*cacheDuration) * time.Second
}
