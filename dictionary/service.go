package dictionary

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/teatak/ikseg/config"
	"github.com/teatak/ikseg/logging"
	"github.com/teatak/ikseg/util"
)

// Service owns the live dictionary snapshot. Readers take the current
// snapshot without locking; reloads and administrative edits build a new
// snapshot and swap it in.
type Service struct {
	fetcher Fetcher
	logger  logging.Logger
	metrics *Metrics

	current atomic.Pointer[Dictionary]
	group   singleflight.Group

	mu     sync.Mutex
	cfg    *config.Config
	report LoadReport
	remote map[string][]string
	edits  []edit
}

// edit is an administrative change replayed on top of every reload.
type edit struct {
	words []string
	state int
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithFetcher sets the remote word list fetcher. Nil disables remote sources.
func WithFetcher(f Fetcher) ServiceOption {
	return func(s *Service) {
		s.fetcher = f
	}
}

// WithLogger sets the service logger.
func WithLogger(logger logging.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logging.OrNop(logger)
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService loads the dictionaries described by cfg. It fails when a
// critical source is missing.
func NewService(ctx context.Context, cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Service{
		fetcher: NewHTTPFetcher(),
		logger:  logging.Nop(),
		cfg:     cfg.Clone(),
	}
	for _, opt := range opts {
		opt(s)
	}

	start := time.Now()
	l := newLoader(s.cfg, s.fetcher, s.logger)
	dict, report, err := loadWith(ctx, l)
	s.metrics.AddFetchFailures(l.remoteFailures)
	if err != nil {
		return nil, err
	}
	s.current.Store(dict)
	s.report = report
	s.remote = l.remote
	stats := dict.Stats()
	s.metrics.SetWords(stats)
	s.logger.Info("[dict] loaded main=%d quantifier=%d stop=%d in %s",
		stats.Main, stats.Quantifier, stats.Stop, time.Since(start).Round(time.Millisecond))
	return s, nil
}

func loadWith(ctx context.Context, l *loader) (*Dictionary, LoadReport, error) {
	var main, quantifier, stop *segment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		main, err = l.buildMain(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		quantifier, err = l.buildQuantifier()
		return err
	})
	g.Go(func() error {
		var err error
		stop, err = l.buildStop(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, l.report, err
	}
	return newDictionary(main, quantifier, stop), l.report, nil
}

// Current returns the live snapshot.
func (s *Service) Current() *Dictionary {
	return s.current.Load()
}

// Config returns a copy of the configuration the live snapshot was built from.
func (s *Service) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// Report returns the report of the last successful load.
func (s *Service) Report() LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// loadedRemote returns the list the live snapshot holds for a remote
// location. ok is false when the last load could not fetch it.
func (s *Service) loadedRemote(location string) (words []string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	words, ok = s.remote[location]
	return words, ok
}

// AddWords adds words to the main dictionary. The change survives reloads.
// It returns the number of words applied.
func (s *Service) AddWords(words []string) int {
	return s.apply(words, 1)
}

// DisableWords disables words in the main dictionary. Unknown words are
// ignored. The change survives reloads.
func (s *Service) DisableWords(words []string) int {
	return s.apply(words, 0)
}

func (s *Service) apply(words []string, state int) int {
	normalized := make([]string, 0, len(words))
	for _, w := range words {
		if w = util.NormalizeWord(w); w != "" {
			normalized = append(normalized, w)
		}
	}
	if len(normalized) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.current.Load()
	main := old.main.clone()
	fillWords(main, normalized, state)
	s.edits = append(s.edits, edit{words: normalized, state: state})

	next := old.withMain(main)
	s.current.Store(next)
	s.metrics.SetWords(next.Stats())
	if state == 1 {
		s.logger.Info("[dict] added %d words", len(normalized))
	} else {
		s.logger.Info("[dict] disabled %d words", len(normalized))
	}
	return len(normalized)
}

// ForceReload rebuilds the main and stopword dictionaries from their sources.
func (s *Service) ForceReload(ctx context.Context) error {
	return s.Reload(ctx, TriggerManual)
}

// Reload rebuilds the main and stopword dictionaries. Concurrent calls share
// one rebuild. On failure the previous snapshot stays live.
func (s *Service) Reload(ctx context.Context, trigger string) error {
	_, err, _ := s.group.Do("reload", func() (any, error) {
		return nil, s.reload(ctx, trigger, nil)
	})
	return err
}

// UpdateConfig adopts cfg and reloads. The configuration is kept only when
// the reload succeeds.
func (s *Service) UpdateConfig(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("update config: nil config")
	}
	return s.reload(ctx, TriggerConfig, cfg.Clone())
}

func (s *Service) reload(ctx context.Context, trigger string, cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rebuildQuantifier := false
	if cfg == nil {
		cfg = s.cfg
	} else {
		rebuildQuantifier = cfg.Resolve(cfg.QuantifierDict.Path) != s.cfg.Resolve(s.cfg.QuantifierDict.Path)
	}

	s.logger.Info("[dict] reloading (%s)", trigger)
	start := time.Now()
	l := newLoader(cfg, s.fetcher, s.logger)

	old := s.current.Load()
	var main, stop *segment
	quantifier := old.quantifier
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		main, err = l.buildMain(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stop, err = l.buildStop(gctx)
		return err
	})
	if rebuildQuantifier {
		g.Go(func() error {
			var err error
			quantifier, err = l.buildQuantifier()
			return err
		})
	}
	err := g.Wait()
	s.metrics.AddFetchFailures(l.remoteFailures)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.metrics.ObserveReload(trigger, err, time.Since(start))
		s.logger.Error("[dict] reload (%s) failed, keeping current dictionary: %v", trigger, err)
		return fmt.Errorf("reload dictionary: %w", err)
	}

	for _, e := range s.edits {
		fillWords(main, e.words, e.state)
	}

	next := newDictionary(main, quantifier, stop)
	s.current.Store(next)
	s.cfg = cfg
	s.report = l.report
	s.remote = l.remote

	stats := next.Stats()
	s.metrics.SetWords(stats)
	s.metrics.ObserveReload(trigger, nil, time.Since(start))
	s.logger.Info("[dict] reload (%s) done: main=%d stop=%d in %s",
		trigger, stats.Main, stats.Stop, time.Since(start).Round(time.Millisecond))
	return nil
}
