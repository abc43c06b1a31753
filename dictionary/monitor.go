package dictionary

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/teatak/ikseg/config"
	"github.com/teatak/ikseg/logging"
	"github.com/teatak/ikseg/util"
)

const defaultWatchDebounce = 750 * time.Millisecond

// Monitor keeps a Service current: it polls remote word lists, checks the
// extension folder and configuration file for changes, and optionally
// watches the extension folder.
type Monitor struct {
	svc      *Service
	fetcher  Fetcher
	logger   logging.Logger
	debounce time.Duration

	mu         sync.Mutex
	ctx        context.Context
	cron       *cron.Cron
	extModTime time.Time
	cfgModTime time.Time
	watcher    *fsnotify.Watcher
	timer      *time.Timer
	started    bool
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// MonitorOption customizes a Monitor.
type MonitorOption func(*Monitor)

// WithMonitorLogger sets the monitor logger.
func WithMonitorLogger(logger logging.Logger) MonitorOption {
	return func(m *Monitor) {
		m.logger = logging.OrNop(logger)
	}
}

// WithMonitorFetcher overrides the fetcher used for remote polling.
func WithMonitorFetcher(f Fetcher) MonitorOption {
	return func(m *Monitor) {
		m.fetcher = f
	}
}

// WithWatchDebounce sets the delay between a folder event and the reload.
func WithWatchDebounce(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.debounce = d
		}
	}
}

// NewMonitor creates a monitor for svc. It does nothing until Start.
func NewMonitor(svc *Service, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		svc:      svc,
		fetcher:  svc.fetcher,
		logger:   svc.logger,
		debounce: defaultWatchDebounce,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start records the current state of the local sources and schedules the
// checks enabled in the service configuration. The monitor stops when ctx
// is done or Close is called.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}

	cfg := m.svc.Config()
	m.ctx = ctx
	m.extModTime = modTime(cfg.ExtFolder())
	m.cfgModTime = modTime(cfg.Path)

	logger := cronLogger{logger: m.logger}
	m.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	jobs := 0
	if cfg.EnableRemoteDict && len(cfg.RemoteExtDict)+len(cfg.RemoteExtStopwords) > 0 && m.fetcher != nil {
		spec := fmt.Sprintf("@every %s", cfg.RemotePollInterval)
		if _, err := m.cron.AddFunc(spec, func() { _, _ = m.CheckRemote(ctx) }); err != nil {
			return fmt.Errorf("schedule remote poll: %w", err)
		}
		jobs++
	}
	if cfg.EnableAutoCheckDict {
		spec := fmt.Sprintf("@every %s", cfg.LocalCheckInterval)
		if _, err := m.cron.AddFunc(spec, func() { _, _ = m.CheckLocal(ctx) }); err != nil {
			return fmt.Errorf("schedule local check: %w", err)
		}
		jobs++
	}
	if folder := cfg.ExtFolder(); cfg.WatchExtFolder && folder != "" {
		if !util.DirExists(folder) {
			m.logger.Warn("[monitor] ext dictionary folder %s does not exist, not watching", folder)
		} else if err := m.watchLocked(folder); err != nil {
			m.logger.Warn("[monitor] cannot watch %s: %v", folder, err)
		}
	}

	m.cron.Start()
	m.started = true
	m.logger.Info("[monitor] started with %d scheduled checks", jobs)

	go func() {
		select {
		case <-ctx.Done():
			m.Close()
		case <-m.stopCh:
		}
	}()
	return nil
}

// Close stops all scheduled checks and the folder watcher. It waits for a
// running check to finish. Safe to call multiple times.
func (m *Monitor) Close() error {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.mu.Lock()
		if m.timer != nil {
			m.timer.Stop()
			m.timer = nil
		}
		if m.watcher != nil {
			_ = m.watcher.Close()
			m.watcher = nil
		}
		c := m.cron
		m.mu.Unlock()
		if c != nil {
			<-c.Stop().Done()
		}
	})
	return nil
}

// CheckRemote fetches every remote list and reloads when one differs from
// the list the live snapshot was built from. A location the last load could
// not fetch counts as changed once it answers again. A failed reload leaves
// the snapshot as it was, so the next poll retries.
func (m *Monitor) CheckRemote(ctx context.Context) (bool, error) {
	if m.fetcher == nil {
		return false, nil
	}
	cfg := m.svc.Config()
	locations := append(append([]string(nil), cfg.RemoteExtDict...), cfg.RemoteExtStopwords...)

	changed := false
	for _, loc := range locations {
		words, err := m.fetcher.Fetch(ctx, loc)
		if err != nil {
			m.svc.metrics.AddFetchFailures(1)
			m.logger.Error("[monitor] poll %s failed: %v", loc, err)
			continue
		}
		prev, loaded := m.svc.loadedRemote(loc)
		if !loaded {
			m.logger.Info("[monitor] %s is reachable again: %d lines", loc, len(words))
			changed = true
			continue
		}
		added, removed := diffLines(prev, words)
		if added+removed > 0 {
			m.logger.Info("[monitor] %s changed: +%d -%d lines", loc, added, removed)
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	return true, m.svc.Reload(ctx, TriggerRemote)
}

// CheckLocal reloads when the extension folder's modification time changed,
// or when the configuration file changed in a way that affects the
// dictionary sources.
func (m *Monitor) CheckLocal(ctx context.Context) (bool, error) {
	cfg := m.svc.Config()

	if folder := cfg.ExtFolder(); folder != "" {
		if mt := modTime(folder); !mt.IsZero() {
			m.mu.Lock()
			folderChanged := !mt.Equal(m.extModTime)
			if folderChanged {
				m.extModTime = mt
				m.cfgModTime = modTime(cfg.Path)
			}
			m.mu.Unlock()
			if folderChanged {
				m.logger.Info("[monitor] %s changed, reloading", folder)
				return true, m.svc.Reload(ctx, TriggerLocal)
			}
		}
	}

	if cfg.Path == "" {
		return false, nil
	}
	mt := modTime(cfg.Path)
	m.mu.Lock()
	cfgChanged := !mt.Equal(m.cfgModTime)
	m.cfgModTime = mt
	m.mu.Unlock()
	if !cfgChanged || mt.IsZero() {
		return false, nil
	}

	next, err := config.Load(cfg.Path)
	if err != nil {
		m.logger.Error("[monitor] %v", err)
		return false, err
	}
	if next.Digest() == cfg.Digest() {
		return false, nil
	}
	m.logger.Info("[monitor] dictionary sources in %s changed, reloading", cfg.Path)
	return true, m.svc.UpdateConfig(ctx, next)
}

func (m *Monitor) watchLocked(folder string) error {
	if folder == "" {
		return fmt.Errorf("no extension folder configured")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	err = filepath.WalkDir(folder, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return err
	}
	m.watcher = w
	go m.watchLoop(w)
	return nil
}

func (m *Monitor) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case <-m.stopCh:
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				m.scheduleReload()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			m.logger.Warn("[monitor] watcher error: %v", err)
		}
	}
}

func (m *Monitor) scheduleReload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.debounce, func() {
		select {
		case <-m.stopCh:
			return
		default:
		}
		_ = m.svc.Reload(m.ctx, TriggerWatch)
	})
}

func modTime(path string) time.Time {
	if path == "" {
		return time.Time{}
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// diffLines counts lines added to and removed from before to get after.
func diffLines(before, after []string) (added, removed int) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(joinLines(before), joinLines(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// cronLogger routes cron diagnostics to a Logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("[cron] %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("[cron] %s: %v %v", msg, err, keysAndValues)
}
