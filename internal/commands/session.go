package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"pockettasks/internal/config"
	"pockettasks/internal/store"
	"pockettasks/internal/taskstore"
)

// session is an initialized task store bound to its provider.
type session struct {
	Tasks    *taskstore.Store
	provider store.Provider
}

// openSession opens the configured provider and loads the task collection.
// The store is ready when openSession returns.
func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	if cfg.Storage.Backend == store.BackendSQLite && cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	provider, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	logger := log.With().Str("cmp", "taskstore").Str("backend", string(cfg.Storage.Backend)).Logger()
	tasks := taskstore.New(provider, taskstore.Options{
		Key:          cfg.Storage.Key,
		WriteTimeout: cfg.Storage.WriteTimeout,
		Logger:       &logger,
	})
	tasks.Initialize(ctx)

	return &session{Tasks: tasks, provider: provider}, nil
}

// Close flushes pending writes and releases the provider. The returned error
// reports a failed final save.
func (s *session) Close(ctx context.Context) error {
	flushErr := s.Tasks.Flush(ctx)
	s.Tasks.Close()

	if err := s.provider.Close(); err != nil {
		log.Warn().Err(err).Msg("close storage")
	}

	if flushErr != nil {
		return fmt.Errorf("save tasks: %w", flushErr)
	}
	return nil
}

// withSession runs fn against an open session and closes it afterwards.
func withSession(ctx context.Context, flags *Flags, fn func(s *session) error) (err error) {
	s, err := openSession(ctx, flags.Config)
	if err != nil {
		return err
	}
	defer func() {
		// The final save must run even when ctx was canceled to stop fn.
		err = errors.Join(err, s.Close(context.WithoutCancel(ctx)))
	}()

	return fn(s)
}
