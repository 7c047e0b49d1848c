package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"pockettasks/internal/config"
	"pockettasks/internal/store"
	"pockettasks/pkg/logutils"
)

// NewApp builds the pockettasks command tree. The returned closer releases the
// log file and must be called after Run.
func NewApp(version string) (*cli.Command, func()) {
	var logCloser = func() {}

	flags := &Flags{}

	app := &cli.Command{
		Name:      "pockettasks",
		Usage:     "A personal task list",
		UsageText: "pockettasks [global options] command [command options]",
		Description: `pockettasks keeps a list of to-do items with priorities, due dates
and categories, saved locally after every change.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("POCKETTASKS_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("POCKETTASKS_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("POCKETTASKS_CONFIG"),
				Value:       DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("POCKETTASKS_DATA_DIR"),
				Value:       DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "storage",
				Usage:       "storage backend override (sqlite, redis, memory)",
				Sources:     cli.EnvVars("POCKETTASKS_STORAGE"),
				Destination: &flags.Storage,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, filepath.Clean(flags.DataDir))
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			if flags.Storage != "" {
				cfg.Storage.Backend = store.Backend(flags.Storage)
				if err := cfg.Validate(); err != nil {
					return ctx, fmt.Errorf("invalid --storage: %w", err)
				}
			}

			flags.Config = cfg
			return ctx, nil
		},
	}

	app = NewTasksCmd(flags).Register(app)
	app = NewServeCmd(flags).Register(app)

	return app, func() { logCloser() }
}
