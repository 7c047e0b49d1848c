package taskstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pockettasks/internal/store"
)

// errWriterClosed is returned by flush after close.
var errWriterClosed = errors.New("taskstore: writer closed")

// writer owns every provider write for one key. Only the newest pending
// snapshot is kept, and writes happen one at a time in submission order, so an
// older snapshot never lands after a newer one.
type writer struct {
	provider store.Provider
	key      string
	timeout  time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	pending *string
	lastErr error

	wake    chan struct{}
	flushes chan chan error
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newWriter(provider store.Provider, key string, timeout time.Duration, log zerolog.Logger) *writer {
	w := &writer{
		provider: provider,
		key:      key,
		timeout:  timeout,
		log:      log,
		wake:     make(chan struct{}, 1),
		flushes:  make(chan chan error),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// submit replaces the pending snapshot and wakes the worker. It never blocks
// on storage.
func (w *writer) submit(snapshot string) {
	w.mu.Lock()
	w.pending = &snapshot
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// flush waits until every snapshot submitted before the call has been written
// and returns the result of the most recent write.
func (w *writer) flush(ctx context.Context) error {
	reply := make(chan error, 1)

	select {
	case w.flushes <- reply:
	case <-w.done:
		return errWriterClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close writes any pending snapshot and stops the worker.
func (w *writer) close() {
	w.once.Do(func() { close(w.quit) })
	<-w.done
}

func (w *writer) run() {
	defer close(w.done)

	for {
		select {
		case <-w.wake:
			w.drain()
		case reply := <-w.flushes:
			w.drain()
			w.mu.Lock()
			reply <- w.lastErr
			w.mu.Unlock()
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *writer) drain() {
	for {
		w.mu.Lock()
		snapshot := w.pending
		w.pending = nil
		w.mu.Unlock()

		if snapshot == nil {
			return
		}

		err := w.write(*snapshot)

		w.mu.Lock()
		w.lastErr = err
		w.mu.Unlock()
	}
}

func (w *writer) write(snapshot string) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.provider.Set(ctx, w.key, snapshot); err != nil {
		w.log.Error().Err(err).Str("key", w.key).Msg("error saving tasks")
		return err
	}

	w.log.Debug().Str("key", w.key).Int("bytes", len(snapshot)).Msg("tasks saved")
	return nil
}
