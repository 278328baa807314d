package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gompdf/smartprint/internal/scheduler"
	"github.com/gompdf/smartprint/internal/state"
	"github.com/gompdf/smartprint/pkg/api"
)

// fileObserver reports writes to a single file. The parent directory is
// watched so that editors replacing the file are noticed.
type fileObserver struct {
	watcher *fsnotify.Watcher
	name    string
	changes chan struct{}
	log     *zap.Logger
}

func newFileObserver(path string, log *zap.Logger) (*fileObserver, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return nil, multierr.Append(fmt.Errorf("unable to watch '%s': %w", filepath.Dir(abs), err), w.Close())
	}
	return &fileObserver{
		watcher: w,
		name:    abs,
		changes: make(chan struct{}, 1),
		log:     log,
	}, nil
}

func (o *fileObserver) Changes() <-chan struct{} {
	return o.changes
}

// run forwards relevant events until ctx is done or the watcher is closed
func (o *fileObserver) run(ctx context.Context) {
	defer close(o.changes)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-o.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != o.name || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			select {
			case o.changes <- struct{}{}:
			default:
			}
		case err, ok := <-o.watcher.Errors:
			if !ok {
				return
			}
			o.log.Warn("File watcher error", zap.Error(err))
		}
	}
}

func (o *fileObserver) Close() error {
	return o.watcher.Close()
}

func runWatch(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	source := cmd.Args().Get(0)
	if source == "" {
		return errNoSource
	}
	if isURL(source) {
		return errors.New("watch works on local files only")
	}

	conv := env.Converter().WithBase(source)
	out := destination(cmd.Args().Get(1), conv.Options().Title, source, ".pdf")

	obs, err := newFileObserver(source, env.Log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, obs.Close())
	}()

	published := make(chan []api.Page, 1)
	sched := scheduler.New(
		conv.Pipeline(func(context.Context) (string, error) {
			data, err := os.ReadFile(source)
			return string(data), err
		}),
		scheduler.WithDebounce(conv.Options().Debounce),
		scheduler.WithLogger(env.Log),
		scheduler.OnPublish(func(pages []api.Page) {
			// keep only the latest result
			select {
			case <-published:
			default:
			}
			published <- pages
		}),
	)

	sched.Enable(ctx, conv.Config())
	defer func() {
		sched.Disable()
		sched.Wait()
	}()

	go obs.run(ctx)
	go func() {
		if err := sched.Observe(ctx, obs); err != nil && !errors.Is(err, context.Canceled) {
			env.Log.Warn("Observer stopped", zap.Error(err))
		}
	}()

	env.Log.Info("Watching for changes", zap.String("source", source), zap.String("destination", out))
	for {
		select {
		case <-ctx.Done():
			env.Log.Info("Watch stopped")
			return nil
		case pages := <-published:
			if err := conv.WritePagesToFile(ctx, pages, out); err != nil {
				env.Log.Error("Unable to write output", zap.Error(err))
				continue
			}
			env.Log.Info("Output updated", zap.String("destination", out), zap.Int("pages", len(pages)))
		}
	}
}
