package dictionary

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/teatak/ikseg/config"
	"github.com/teatak/ikseg/logging"
)

// ErrCriticalMissing is returned when a source marked critical cannot be found.
var ErrCriticalMissing = errors.New("critical dictionary source missing")

// Source kinds reported in a LoadReport.
const (
	KindMain               = "main"
	KindQuantifier         = "quantifier"
	KindStopword           = "stopword"
	KindExtDict            = "ext_dict"
	KindExtStopwords       = "ext_stopwords"
	KindRemoteExtDict      = "remote_ext_dict"
	KindRemoteExtStopwords = "remote_ext_stopwords"
)

// SourceError reports a dictionary source that could not be loaded.
type SourceError struct {
	Kind   string
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("load %s dictionary %s: %v", e.Kind, e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// SourceStatus describes the outcome for one source.
type SourceStatus struct {
	Kind   string `json:"kind"`
	Source string `json:"source"`
	Words  int    `json:"words"`
	Err    string `json:"error,omitempty"`
}

// LoadReport lists what a load or reload read.
type LoadReport struct {
	Loaded  []SourceStatus `json:"loaded"`
	Missing []SourceStatus `json:"missing,omitempty"`
	Failed  []SourceStatus `json:"failed,omitempty"`
}

// Words sums the words read from all loaded sources.
func (r LoadReport) Words() int {
	n := 0
	for _, s := range r.Loaded {
		n += s.Words
	}
	return n
}

// Load reads every configured source and builds a snapshot.
// A nil fetcher skips remote sources.
func Load(ctx context.Context, cfg *config.Config, fetcher Fetcher, logger logging.Logger) (*Dictionary, LoadReport, error) {
	return loadWith(ctx, newLoader(cfg, fetcher, logger))
}

type loader struct {
	cfg     *config.Config
	fetcher Fetcher
	logger  logging.Logger

	mu     sync.Mutex
	report LoadReport
	// remote holds the lists fetched successfully, by location.
	remote map[string][]string
	// remoteFailures counts failed fetches, read by the service for metrics.
	remoteFailures int
}

func newLoader(cfg *config.Config, fetcher Fetcher, logger logging.Logger) *loader {
	return &loader{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logging.OrNop(logger),
		remote:  make(map[string][]string),
	}
}

func (l *loader) buildMain(ctx context.Context) (*segment, error) {
	root := newSegment(0)
	if err := l.fillSource(root, KindMain, l.cfg.MainDict); err != nil {
		return nil, err
	}
	for _, src := range l.cfg.ExtDict {
		if err := l.fillSource(root, KindExtDict, src); err != nil {
			return nil, err
		}
	}
	for _, loc := range l.cfg.RemoteExtDict {
		l.fillRemote(ctx, root, KindRemoteExtDict, loc)
	}
	return root, nil
}

func (l *loader) buildQuantifier() (*segment, error) {
	root := newSegment(0)
	if err := l.fillSource(root, KindQuantifier, l.cfg.QuantifierDict); err != nil {
		return nil, err
	}
	return root, nil
}

func (l *loader) buildStop(ctx context.Context) (*segment, error) {
	root := newSegment(0)
	if err := l.fillSource(root, KindStopword, l.cfg.StopwordDict); err != nil {
		return nil, err
	}
	for _, src := range l.cfg.ExtStopwords {
		if err := l.fillSource(root, KindExtStopwords, src); err != nil {
			return nil, err
		}
	}
	for _, loc := range l.cfg.RemoteExtStopwords {
		l.fillRemote(ctx, root, KindRemoteExtStopwords, loc)
	}
	return root, nil
}

// fillSource loads a file, or every file below a directory, into root.
func (l *loader) fillSource(root *segment, kind string, src config.Source) error {
	if src.Path == "" {
		return nil
	}
	path := l.cfg.Resolve(src.Path)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		if src.Critical {
			l.record(&l.report.Failed, SourceStatus{Kind: kind, Source: path, Err: ErrCriticalMissing.Error()})
			return &SourceError{Kind: kind, Source: path, Err: ErrCriticalMissing}
		}
		l.logger.Warn("[dict] %s dictionary not found: %s", kind, path)
		l.record(&l.report.Missing, SourceStatus{Kind: kind, Source: path})
		return nil
	}
	if err != nil {
		return l.fail(kind, path, src.Critical, err)
	}

	if !info.IsDir() {
		return l.fillFile(root, kind, path, src.Critical)
	}

	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			l.logger.Error("[dict] listing %s: %v", p, err)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return l.fillFile(root, kind, p, src.Critical)
	})
}

func (l *loader) fillFile(root *segment, kind, path string, critical bool) error {
	l.logger.Info("[dict] loading %s dictionary %s", kind, path)
	words, err := ReadWordFile(path)
	if err != nil {
		return l.fail(kind, path, critical, err)
	}
	n := fillWords(root, words, 1)
	l.record(&l.report.Loaded, SourceStatus{Kind: kind, Source: path, Words: n})
	return nil
}

func (l *loader) fillRemote(ctx context.Context, root *segment, kind, location string) {
	if l.fetcher == nil {
		return
	}
	l.logger.Info("[dict] loading %s %s", kind, location)
	words, err := l.fetcher.Fetch(ctx, location)
	if err != nil {
		l.logger.Error("[dict] %s %s failed: %v", kind, location, err)
		l.mu.Lock()
		l.remoteFailures++
		l.mu.Unlock()
		l.record(&l.report.Failed, SourceStatus{Kind: kind, Source: location, Err: err.Error()})
		return
	}
	n := fillWords(root, words, 1)
	l.mu.Lock()
	l.remote[location] = words
	l.mu.Unlock()
	l.logger.Debug("[dict] %s %s: %d words", kind, location, n)
	l.record(&l.report.Loaded, SourceStatus{Kind: kind, Source: location, Words: n})
}

func (l *loader) fail(kind, path string, critical bool, err error) error {
	l.record(&l.report.Failed, SourceStatus{Kind: kind, Source: path, Err: err.Error()})
	if critical {
		return &SourceError{Kind: kind, Source: path, Err: err}
	}
	l.logger.Error("[dict] %s dictionary %s: %v", kind, path, err)
	return nil
}

func (l *loader) record(list *[]SourceStatus, s SourceStatus) {
	l.mu.Lock()
	*list = append(*list, s)
	l.mu.Unlock()
}

// ReadWordFile reads a word list: one word per line, UTF-8, optional BOM.
// Blank lines are skipped. A trailing numeric frequency column is ignored.
func ReadWordFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadWords(file)
}

// ReadWords reads a word list from r. See ReadWordFile.
func ReadWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		if word := parseLine(line); word != "" {
			words = append(words, word)
		}
	}
	return words, scanner.Err()
}

// parseLine accepts "word" and "word freq".
func parseLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	parts := strings.Fields(line)
	if len(parts) >= 2 {
		if _, err := strconv.ParseFloat(parts[len(parts)-1], 64); err == nil {
			return strings.Join(parts[:len(parts)-1], " ")
		}
	}
	return line
}
