// Package filetail provides a cwship plugin that follows text files and
// ships every appended line to a stream. Truncated files are re-read from
// the start and replaced (rotated) files are followed by name.
package filetail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/cwship/pkg/cwship"
	"github.com/bft-labs/cwship/pkg/log"
)

// Config holds configuration options for the file tail plugin.
type Config struct {
	// Files maps a stream name to the path of the file shipped to it.
	Files map[string]string

	// FromStart ships the existing content of each file instead of only
	// lines written after Initialize.
	FromStart bool

	// RetryInterval is the first delay between attempts to watch a
	// directory that cannot be watched yet. It doubles up to MaxRetryInterval.
	// Default: 5 seconds
	RetryInterval time.Duration

	// MaxRetryInterval caps the retry delay.
	// Default: 1 minute
	MaxRetryInterval time.Duration

	// MaxLineBytes is the longest line kept before it is shipped as is.
	// Default: 256 KiB
	MaxLineBytes int
}

// DefaultConfig returns a Config with no files and sensible defaults.
func DefaultConfig() Config {
	return Config{
		Files:            map[string]string{},
		RetryInterval:    5 * time.Second,
		MaxRetryInterval: time.Minute,
		MaxLineBytes:     256 * 1024,
	}
}

// Plugin tails files into a cwship.Shipper.
type Plugin struct {
	cfg Config

	mu      sync.Mutex
	tailers []*tailer
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a file tail plugin with the given configuration.
func New(cfg Config) *Plugin {
	def := DefaultConfig()
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	if cfg.MaxRetryInterval <= 0 {
		cfg.MaxRetryInterval = def.MaxRetryInterval
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = def.MaxLineBytes
	}
	return &Plugin{cfg: cfg}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "filetail"
}

// Initialize positions every file and starts one watcher per file.
func (p *Plugin) Initialize(ctx context.Context, cfg cwship.PluginConfig) error {
	if cfg.Sink == nil {
		return errors.New("filetail: plugin config has no sink")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	streams := make([]string, 0, len(p.cfg.Files))
	for stream := range p.cfg.Files {
		streams = append(streams, stream)
	}
	sort.Strings(streams)

	tailers := make([]*tailer, 0, len(streams))
	for _, stream := range streams {
		path, err := filepath.Abs(p.cfg.Files[stream])
		if err != nil {
			return fmt.Errorf("filetail: resolve %s: %w", p.cfg.Files[stream], err)
		}
		t := &tailer{
			stream:  stream,
			path:    path,
			sink:    cfg.Sink,
			maxLine: p.cfg.MaxLineBytes,
			logger:  log.With(logger, log.String("plugin", "filetail"), log.Stream(stream), log.String("path", path)),
		}
		if err := t.prime(p.cfg.FromStart); err != nil {
			return fmt.Errorf("filetail: %w", err)
		}
		tailers = append(tailers, t)
	}

	watchCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.tailers = tailers
	p.cancel = cancel
	p.mu.Unlock()

	for _, t := range tailers {
		p.wg.Add(1)
		go func(t *tailer) {
			defer p.wg.Done()
			t.watchLoop(watchCtx, newBackoff(p.cfg.RetryInterval, p.cfg.MaxRetryInterval))
		}(t)
	}

	logger.Info("file tail plugin initialized", log.Int("files", len(tailers)))
	return nil
}

// Shutdown stops the watchers, reads whatever was appended since the last
// event and ships a trailing line that has no newline yet.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	tailers := p.tailers
	p.cancel = nil
	p.tailers = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()

	for _, t := range tailers {
		t.readNew()
		t.flushPartial()
	}
	return nil
}

// tailer follows one file.
type tailer struct {
	stream  string
	path    string
	sink    cwship.Appender
	maxLine int
	logger  log.Logger

	// Owned by the watch loop; Shutdown uses them after it exits.
	info    os.FileInfo
	offset  int64
	partial []byte
}

// prime records the starting position: the end of the file, or its start
// when fromStart is set. A missing file starts at zero once it appears.
func (t *tailer) prime(fromStart bool) error {
	info, err := os.Stat(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", t.path, err)
	}
	t.info = info
	if !fromStart {
		t.offset = info.Size()
	}
	return nil
}

// watchLoop follows the file until ctx ends, re-establishing the watch
// whenever the watcher closes.
func (t *tailer) watchLoop(ctx context.Context, b *backoff) {
	for {
		watcher, err := t.watch(ctx, b)
		if err != nil {
			return
		}
		b.reset()

		// Catch up on anything written before the watch was in place.
		t.readNew()

		closed := t.follow(ctx, watcher)
		watcher.Close()
		if !closed {
			return
		}
		t.logger.Warn("file watcher closed, re-watching")
	}
}

// follow reads the file on every write or create event. It returns true
// when the watcher closed and false when ctx ended.
func (t *tailer) follow(ctx context.Context, watcher *fsnotify.Watcher) bool {
	for {
		select {
		case <-ctx.Done():
			return false

		case event, ok := <-watcher.Events:
			if !ok {
				return true
			}
			if filepath.Clean(event.Name) != t.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				t.readNew()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return true
			}
			t.logger.Error("file watcher error", log.Err(err))
		}
	}
}

// watch watches the file's directory, backing off between attempts until it
// succeeds or ctx ends. The directory is watched so that rotation and
// re-creation are seen.
func (t *tailer) watch(ctx context.Context, b *backoff) (*fsnotify.Watcher, error) {
	dir := filepath.Dir(t.path)
	for {
		watcher, err := fsnotify.NewWatcher()
		if err == nil {
			if err = watcher.Add(dir); err == nil {
				return watcher, nil
			}
			watcher.Close()
		}
		t.logger.Warn("cannot watch directory, retrying",
			log.String("dir", dir),
			log.Duration("retry_in", b.delay),
			log.Err(err))

		if err := b.wait(ctx); err != nil {
			return nil, err
		}
	}
}

// readNew ships the complete lines appended since the last read.
func (t *tailer) readNew() {
	f, err := os.Open(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		t.logger.Warn("cannot open file", log.Err(err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		t.logger.Warn("cannot stat file", log.Err(err))
		return
	}

	switch {
	case t.info != nil && !os.SameFile(t.info, info):
		t.logger.Info("file replaced, reading from start")
		t.flushPartial()
		t.offset = 0
	case info.Size() < t.offset:
		t.logger.Info("file truncated, reading from start", log.Int64("previous_offset", t.offset))
		t.partial = nil
		t.offset = 0
	}
	t.info = info

	if info.Size() == t.offset {
		return
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		t.logger.Warn("cannot seek file", log.Err(err))
		return
	}

	data, err := io.ReadAll(io.LimitReader(f, info.Size()-t.offset))
	t.offset += int64(len(data))
	t.emit(data)
	if err != nil {
		t.logger.Warn("cannot read file", log.Err(err))
	}
}

// emit splits data into lines, keeping an unterminated tail for later.
func (t *tailer) emit(data []byte) {
	buf := append(t.partial, data...)
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		t.ship(buf[:i])
		buf = buf[i+1:]
	}
	if len(buf) > t.maxLine {
		t.ship(buf)
		buf = nil
	}
	t.partial = append([]byte(nil), buf...)
}

func (t *tailer) flushPartial() {
	if len(t.partial) > 0 {
		t.ship(t.partial)
	}
	t.partial = nil
}

func (t *tailer) ship(line []byte) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	t.sink.Log(t.stream, string(line))
}

// Ensure Plugin implements cwship.Plugin.
var _ cwship.Plugin = (*Plugin)(nil)
