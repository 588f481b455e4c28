package seqsummary

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tleonardi/pycoQC/pkg/util"
)

// errDiscoveryLimit stops the walk once MaxFiles paths have been dispatched.
var errDiscoveryLimit = errors.New("discovery limit reached")

// Lister walks the input directory and dispatches every container file path to the
// extractors, followed by one sentinel per extractor. Symbolic links to files and
// directories are followed; each real directory is walked once, so link cycles
// terminate. Paths are reported as found under the input directory, not resolved.
type Lister struct {
	opts       *Options
	workChan   chan<- Message[string]
	extractors int
	bus        *ErrorBus
	hooks      Hooks
	logger     *slog.Logger
	found      int
	visited    map[string]struct{}
}

// NewLister creates a Lister sending to workChan.
func NewLister(opts *Options, workChan chan<- Message[string], bus *ErrorBus, loggerHandler slog.Handler) *Lister {
	return &Lister{
		opts:       opts,
		workChan:   workChan,
		extractors: opts.Extractors(),
		bus:        bus,
		hooks:      opts.Hooks,
		logger:     slog.New(loggerHandler).With(slog.String("component", ComponentLister)),
	}
}

// Found returns the number of dispatched paths. Only valid after Run returns.
func (l *Lister) Found() int { return l.found }

// Run performs the discovery. Sentinels are sent on every exit path that is not a
// cancellation, so extractors always terminate.
func (l *Lister) Run(ctx context.Context) {
	l.logger.Info("Reading fast5 files from input directory", slog.String("path", l.opts.InputPath))

	l.visited = make(map[string]struct{})
	l.enter(l.opts.InputPath)
	root := l.opts.InputPath
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	walkErr := l.walk(ctx, root, l.opts.InputPath)
	if errors.Is(walkErr, errDiscoveryLimit) {
		walkErr = nil
	}

	switch {
	case walkErr != nil && ctx.Err() != nil:
		l.logger.Debug("Discovery cancelled", slog.String("reason", walkErr.Error()))
	case walkErr != nil:
		l.bus.Post(newComponentError(ComponentLister, 0, "", fmt.Errorf("directory walk failed: %w", walkErr)))
	case l.found == 0:
		l.logger.Error("No fast5 files found", slog.String("path", l.opts.InputPath))
		l.bus.Post(newComponentError(ComponentLister, 0, "", fmt.Errorf("%w in %s", ErrNoInputFiles, l.opts.InputPath)))
	default:
		l.logger.Debug("Fast5 files found", slog.Int("count", l.found))
	}

	for i := 0; i < l.extractors; i++ {
		select {
		case l.workChan <- Sentinel[string]():
		case <-ctx.Done():
			return
		}
	}
	l.logger.Debug("Sentinels dispatched", slog.Int("extractors", l.extractors))
}

// walk visits root and reports every path as if it were found under display.
func (l *Lister) walk(ctx context.Context, root, display string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		isRoot := path == root
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			path = filepath.Join(display, rel)
		}
		if err != nil {
			if path == l.opts.InputPath {
				return err
			}
			l.logger.Warn("Error accessing path during discovery", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if !isRoot && !l.enter(path) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			info, statErr := os.Stat(path)
			switch {
			case statErr != nil:
				l.logger.Debug("Skipping broken symbolic link", slog.String("path", path))
				return nil
			case info.IsDir():
				if !l.enter(path) {
					return nil
				}
				target, evalErr := filepath.EvalSymlinks(path)
				if evalErr != nil {
					l.logger.Warn("Could not resolve symbolic link", slog.String("path", path), slog.String("error", evalErr.Error()))
					return nil
				}
				return l.walk(ctx, target, path)
			case !info.Mode().IsRegular():
				return nil
			}
		}
		if !util.MatchesExtension(path, Fast5Extension) {
			return nil
		}
		return l.dispatch(ctx, path)
	})
}

// enter marks the real directory behind path as visited and reports whether it
// was new.
func (l *Lister) enter(path string) bool {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	if _, seen := l.visited[resolved]; seen {
		l.logger.Debug("Directory already visited", slog.String("path", path), slog.String("target", resolved))
		return false
	}
	l.visited[resolved] = struct{}{}
	return true
}

func (l *Lister) dispatch(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		l.logger.Warn("Could not get absolute path", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}

	if hookErr := l.hooks.OnFileDiscovered(absPath); hookErr != nil {
		l.logger.Warn("Event hook OnFileDiscovered failed", slog.String("path", absPath), slog.String("error", hookErr.Error()))
	}

	select {
	case l.workChan <- Data(absPath):
	case <-ctx.Done():
		return ctx.Err()
	}
	l.found++
	if l.opts.MaxFiles > 0 && l.found >= l.opts.MaxFiles {
		return errDiscoveryLimit
	}
	return nil
}
