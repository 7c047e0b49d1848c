package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"pockettasks/internal/handlers"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd implements the serve command.
type ServeCmd struct {
	flags *Flags
	addr  string

	// ready receives the bound listener address once the server accepts
	// connections. Used by tests.
	ready func(addr string)
}

// NewServeCmd creates the serve command.
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application.
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Serve the task list over a local JSON API",
		UsageText: "pockettasks serve [--addr <host:port>]",
		Description: `Loads the task list and serves it on a local HTTP address.

The listener is opened only after the stored tasks have been loaded, so
clients never observe the loading state.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (defaults to http.addr from config)",
				Sources:     cli.EnvVars("POCKETTASKS_ADDR"),
				Destination: &cmd.addr,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	addr := cmd.addr
	if addr == "" {
		addr = cfg.HTTP.Addr
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withSession(ctx, cmd.flags, func(s *session) error {
		logger := log.With().Str("cmp", "http").Logger()
		h := handlers.New(s.Tasks, cfg.Categories, cfg.DefaultCategory, logger)

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}

		srv := &http.Server{
			Handler:           h.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Serve(ln)
		}()

		log.Info().Str("addr", ln.Addr().String()).Msg("serving tasks")
		if cmd.ready != nil {
			cmd.ready(ln.Addr().String())
		}

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
}
