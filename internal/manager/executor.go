package manager

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/roach88/readlater/internal/fifo"
)

// executor runs blocks one at a time, in submission order, on its own
// goroutine.
type executor struct {
	name   string
	queue  *fifo.Queue[func()]
	done   chan struct{}
	logger *slog.Logger
}

func newExecutor(name string, logger *slog.Logger) *executor {
	e := &executor{
		name:   name,
		queue:  fifo.New[func()](),
		done:   make(chan struct{}),
		logger: logger,
	}
	go e.run()
	return e
}

func (e *executor) run() {
	defer close(e.done)
	e.logger.Debug("context started", "context", e.name)

	for {
		fn, ok := e.queue.Dequeue()
		if !ok {
			e.logger.Debug("context stopped", "context", e.name)
			return
		}
		fn()
	}
}

// post queues fn without waiting. Returns false after close.
func (e *executor) post(fn func()) bool {
	return e.queue.Enqueue(func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("panic in posted block",
					"context", e.name,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	})
}

// performAndWait runs fn on the executor goroutine and waits for it to
// finish. A panic in fn is recovered and returned as an error.
//
// A block that has been queued always runs to completion; ctx only stops a
// block from being queued in the first place.
func (e *executor) performAndWait(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result := make(chan error, 1)
	queued := e.queue.Enqueue(func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("panic in block",
					"context", e.name,
					"panic", r,
					"stack", string(debug.Stack()),
				)
				result <- fmt.Errorf("%s context: panic: %v", e.name, r)
			}
		}()
		result <- fn()
	})
	if !queued {
		return ErrClosed
	}

	return <-result
}

// close stops accepting blocks, runs the ones already queued, and waits for
// the goroutine to exit.
func (e *executor) close() {
	e.queue.Close()
	<-e.done
}
