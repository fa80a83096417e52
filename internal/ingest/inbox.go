package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/roach88/readlater/internal/model"
)

// Subdirectories of the inbox that receive handled files.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// Sink stores decoded records. *upsert.Pipeline implements it.
type Sink interface {
	Build(ctx context.Context, records []model.RecordDescriptor) ([]model.Entity, error)
}

// Report describes one handled file.
type Report struct {
	Path    string
	Stored  int
	Skipped []*RecordError
	Err     error
}

// Inbox watches a directory and upserts every record file dropped into it.
//
// Files are handled one at a time, in name order for files already present
// at start. Writers should create a file elsewhere and rename it into the
// inbox so a half-written file is never read.
type Inbox struct {
	dir      string
	sink     Sink
	logger   *slog.Logger
	onReport func(Report)
	limiter  *rate.Limiter
}

// InboxOption configures an Inbox.
type InboxOption func(*Inbox)

// WithInboxLogger sets the logger. Defaults to slog.Default().
func WithInboxLogger(l *slog.Logger) InboxOption {
	return func(in *Inbox) { in.logger = l }
}

// WithReportFunc registers a callback invoked after each file.
func WithReportFunc(fn func(Report)) InboxOption {
	return func(in *Inbox) { in.onReport = fn }
}

// WithRateLimit caps how many files are handled per second, so a burst of
// files does not monopolize the write context. burst files may be handled
// back to back. A non-positive limit means no cap.
func WithRateLimit(limit rate.Limit, burst int) InboxOption {
	return func(in *Inbox) {
		if limit <= 0 {
			in.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		in.limiter = rate.NewLimiter(limit, burst)
	}
}

// NewInbox creates an inbox over dir, creating dir and its processed/ and
// failed/ subdirectories if needed.
func NewInbox(dir string, sink Sink, opts ...InboxOption) (*Inbox, error) {
	for _, d := range []string{dir, filepath.Join(dir, ProcessedDir), filepath.Join(dir, FailedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create inbox directory: %w", err)
		}
	}

	in := &Inbox{
		dir:    dir,
		sink:   sink,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in, nil
}

// Run handles files already in the inbox, then watches for new ones until
// ctx is cancelled. It returns nil on cancellation.
func (in *Inbox) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Watch before scanning so a file arriving in between is not missed.
	if err := watcher.Add(in.dir); err != nil {
		return fmt.Errorf("failed to watch inbox %s: %w", in.dir, err)
	}

	if err := in.Scan(ctx); err != nil {
		return err
	}

	in.logger.Info("watching inbox", "dir", in.dir)

	for {
		select {
		case <-ctx.Done():
			in.logger.Info("inbox stopped", "dir", in.dir)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isRecordFile(event.Name) {
				continue
			}
			if !in.wait(ctx) {
				in.logger.Info("inbox stopped", "dir", in.dir)
				return nil
			}
			in.handle(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			in.logger.Error("inbox watcher error", "dir", in.dir, "error", err)
		}
	}
}

// Scan handles every record file currently in the inbox, in name order.
func (in *Inbox) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		return fmt.Errorf("scan inbox: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && isRecordFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	for _, name := range names {
		if !in.wait(ctx) {
			return nil
		}
		in.handle(ctx, filepath.Join(in.dir, name))
	}
	return nil
}

// wait blocks until the rate limit allows another file. It returns false
// once ctx is done.
func (in *Inbox) wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if in.limiter == nil {
		return true
	}
	return in.limiter.Wait(ctx) == nil
}

// handle processes one file and moves it out of the inbox.
func (in *Inbox) handle(ctx context.Context, path string) {
	rep := Report{Path: path}

	res, err := DecodeFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		// Already handled after an earlier event for the same file.
		return
	}
	if err == nil {
		rep.Skipped = res.Skipped
		var stored []model.Entity
		stored, err = in.sink.Build(ctx, res.Records)
		rep.Stored = len(stored)
	}
	rep.Err = err

	dest := ProcessedDir
	if err != nil {
		dest = FailedDir
		in.logger.Error("inbox file failed", "path", path, "error", err)
	} else {
		in.logger.Info("inbox file stored",
			"path", path,
			"stored", rep.Stored,
			"skipped", len(rep.Skipped),
		)
	}
	for _, skip := range rep.Skipped {
		in.logger.Warn("record skipped", "path", path, "error", skip)
	}

	target := filepath.Join(in.dir, dest, filepath.Base(path))
	if mvErr := os.Rename(path, target); mvErr != nil && !errors.Is(mvErr, fs.ErrNotExist) {
		in.logger.Error("failed to move inbox file", "path", path, "target", target, "error", mvErr)
	}

	if in.onReport != nil {
		in.onReport(rep)
	}
}

func isRecordFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
