package segmenter

import (
	"io"
	"strings"
	"sync"

	"github.com/teatak/ikseg/config"
	"github.com/teatak/ikseg/dictionary"
)

// Provider hands out the dictionary snapshot a segmenter scans against.
// Both *dictionary.Service and *dictionary.Dictionary implement it.
type Provider interface {
	Current() *dictionary.Dictionary
}

// Options controls segmentation.
type Options struct {
	// UseSmart selects one disambiguated path per ambiguous region instead
	// of every dictionary candidate.
	UseSmart        bool
	EnableLowercase bool
	// BufferSize is the number of runes scanned per round.
	BufferSize int
}

// DefaultOptions is max-word mode with lowercasing and the default buffer.
func DefaultOptions() Options {
	return Options{EnableLowercase: true, BufferSize: DefaultBufferSize}
}

// OptionsFromConfig takes the segmentation settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		UseSmart:        cfg.UseSmart,
		EnableLowercase: cfg.EnableLowercase,
		BufferSize:      cfg.BufferSize,
	}
}

var emptyDictionary = dictionary.NewFromWords(nil, nil, nil)

// Segmenter splits one input stream into lexemes. The dictionary snapshot
// is taken when the segmenter is created or reset, so a whole input is
// segmented against one snapshot even if the dictionary reloads meanwhile.
type Segmenter struct {
	mu       sync.Mutex
	provider Provider
	opts     Options
	ctx      *scanContext

	letter     *letterScanner
	quantifier *quantifierScanner
	cjk        *cjkScanner

	done bool
	err  error
}

// New creates a segmenter reading r.
func New(provider Provider, r io.Reader, opts Options) *Segmenter {
	s := &Segmenter{
		provider:   provider,
		opts:       opts,
		ctx:        newScanContext(opts.BufferSize, opts.EnableLowercase),
		letter:     newLetterScanner(),
		quantifier: newQuantifierScanner(),
		cjk:        newCJKScanner(),
	}
	s.reset(r)
	return s
}

// Next returns the next lexeme, or io.EOF once the input is exhausted.
// A read error from the input is returned as is and repeated until Reset.
func (s *Segmenter) Next() (Lexeme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if l, ok := s.ctx.nextLexeme(s.opts.UseSmart); ok {
			return l, nil
		}
		if s.err != nil {
			return Lexeme{}, s.err
		}
		if s.done {
			return Lexeme{}, io.EOF
		}

		n, err := s.ctx.fill()
		if err != nil {
			s.err = err
			continue
		}
		if n <= 0 {
			s.done = true
			continue
		}
		if err := s.scan(); err != nil {
			s.err = err
			continue
		}
		arbitrate(s.ctx, s.opts.UseSmart)
		s.ctx.outputToResult()
	}
}

// scan runs the sub-scanners over the buffer until the round ends. When a
// scanner is still open at the end of the buffer, the round is held at the
// earliest open position and the scanners keep their state for the next one.
func (s *Segmenter) scan() error {
	c := s.ctx
	for {
		s.letter.scan(c)
		s.quantifier.scan(c)
		s.cjk.scan(c)

		if c.needRefill() {
			break
		}
		if c.moveCursor() {
			continue
		}
		if c.locked() && c.canExtend() {
			if hold := s.held(); hold > c.offset {
				c.hold = hold
				return nil
			}
			n, err := c.grow()
			if err != nil {
				return err
			}
			if n > 0 {
				c.moveCursor()
				continue
			}
		}
		break
	}
	s.flushScanners()
	s.resetScanners()
	return nil
}

// held returns the earliest stream offset an open scanner may still emit
// a lexeme from, or -1.
func (s *Segmenter) held() int {
	return earliest(earliest(s.letter.held(), s.quantifier.held()), s.cjk.held())
}

// earliest returns the smaller of two offsets, ignoring -1.
func earliest(a, b int) int {
	switch {
	case a == -1:
		return b
	case b == -1:
		return a
	default:
		return min(a, b)
	}
}

func (s *Segmenter) flushScanners() {
	s.letter.flush(s.ctx)
	s.quantifier.flush(s.ctx)
	s.cjk.flush(s.ctx)
}

func (s *Segmenter) resetScanners() {
	s.letter.reset()
	s.quantifier.reset()
	s.cjk.reset()
	s.ctx.locks = 0
}

// Reset points the segmenter at a new input and takes a fresh dictionary snapshot.
func (s *Segmenter) Reset(r io.Reader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(r)
}

func (s *Segmenter) reset(r io.Reader) {
	if r == nil {
		r = strings.NewReader("")
	}
	var dict *dictionary.Dictionary
	if s.provider != nil {
		dict = s.provider.Current()
	}
	if dict == nil {
		dict = emptyDictionary
	}
	s.ctx.reset(r, dict)
	s.resetScanners()
	s.done = false
	s.err = nil
}

// Segment returns all lexemes of text.
func Segment(provider Provider, text string, opts Options) ([]Lexeme, error) {
	seg := New(provider, strings.NewReader(text), opts)
	var out []Lexeme
	for {
		l, err := seg.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, l)
	}
}

// Cut segments text into a slice of strings.
func Cut(provider Provider, text string, opts Options) []string {
	lexemes, _ := Segment(provider, text, opts)
	return Texts(lexemes)
}

// Texts returns the text of each lexeme.
func Texts(lexemes []Lexeme) []string {
	out := make([]string, len(lexemes))
	for i, l := range lexemes {
		out[i] = l.Text
	}
	return out
}
