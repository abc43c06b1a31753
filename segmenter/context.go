package segmenter

import (
	"bufio"
	"errors"
	"io"

	"github.com/teatak/ikseg/dictionary"
	"github.com/teatak/ikseg/util"
)

const (
	// DefaultBufferSize is the number of runes read per scan round.
	DefaultBufferSize = 4096
	// exhaustCritical is how close to the end of a full buffer the cursor
	// may get before a round is cut early.
	exhaustCritical = 100
	// maxGrowth bounds how far the buffer grows while a scanner holds a
	// word that crosses the end of the buffer.
	maxGrowth = 4
	// minLimit is the smallest growth bound, whatever the buffer size.
	minLimit = 1024
)

// scanner locks, one bit per sub-scanner.
const (
	lockLetter uint8 = 1 << iota
	lockQuantifier
	lockCJK
)

// scanContext is the per-stream state shared by the sub-scanners.
// Positions handed to scanners and stored in lexemes are stream offsets;
// buff[0] sits at stream offset offset.
type scanContext struct {
	dict      *dictionary.Dictionary
	reader    *bufio.Reader
	lowercase bool
	size      int
	limit     int
	critical  int

	buff    []rune
	types   []charType
	offset  int
	cursor  int
	scanned int // runes at the front of buff already segmented
	next    int // stream offset of the next rune to scan
	eof     bool

	// hold is the stream offset a round stops emitting at when a scanner
	// is still open at the end of the buffer, or -1. pending is set while
	// the results of such a round may still be followed by more.
	hold    int
	pending bool

	locks      uint8
	candidates lexemeSet
	paths      map[int]*lexemePath
	results    []Lexeme
}

func newScanContext(size int, lowercase bool) *scanContext {
	if size <= 1 {
		size = DefaultBufferSize
	}
	return &scanContext{
		lowercase: lowercase,
		size:      size,
		limit:     max(size*maxGrowth, minLimit),
		critical:  min(exhaustCritical, size/2),
		buff:      make([]rune, 0, size),
		types:     make([]charType, 0, size),
		paths:     make(map[int]*lexemePath),
		hold:      -1,
	}
}

func (c *scanContext) reset(r io.Reader, dict *dictionary.Dictionary) {
	if c.reader == nil {
		c.reader = bufio.NewReader(r)
	} else {
		c.reader.Reset(r)
	}
	c.dict = dict
	c.buff = c.buff[:0]
	c.types = c.types[:0]
	c.offset, c.cursor, c.scanned, c.next = 0, 0, 0, 0
	c.eof = false
	c.hold, c.pending = -1, false
	c.locks = 0
	c.candidates.drain()
	clear(c.paths)
	c.results = nil
}

// fill drops the segmented runes and tops the buffer up to its base size,
// reading at least one more block when every buffered rune was scanned.
// It returns the number of runes left to scan.
func (c *scanContext) fill() (int, error) {
	if c.scanned > 0 {
		n := copy(c.buff, c.buff[c.scanned:])
		copy(c.types, c.types[c.scanned:])
		c.buff = c.buff[:n]
		c.types = c.types[:n]
		c.offset += c.scanned
		c.scanned = 0
	}
	c.cursor = c.next - c.offset
	want := c.size - len(c.buff)
	if c.cursor >= len(c.buff) && c.canExtend() {
		want = max(want, min(c.size, c.limit-len(c.buff)))
	}
	if _, err := c.read(want); err != nil {
		return 0, err
	}
	return len(c.buff) - c.cursor, nil
}

// grow appends up to one more base-size block of input.
func (c *scanContext) grow() (int, error) {
	return c.read(min(c.size, c.limit-len(c.buff)))
}

func (c *scanContext) read(n int) (int, error) {
	if c.eof || n <= 0 {
		return 0, nil
	}
	read := 0
	for ; read < n; read++ {
		r, _, err := c.reader.ReadRune()
		if errors.Is(err, io.EOF) {
			c.eof = true
			return read, nil
		}
		if err != nil {
			return read, err
		}
		r = util.Regularize(r, c.lowercase)
		c.buff = append(c.buff, r)
		c.types = append(c.types, identify(r))
	}
	if _, err := c.reader.Peek(1); errors.Is(err, io.EOF) {
		c.eof = true
	}
	return read, nil
}

func (c *scanContext) current() rune {
	return c.buff[c.cursor]
}

func (c *scanContext) currentType() charType {
	return c.types[c.cursor]
}

// pos is the stream offset of the cursor.
func (c *scanContext) pos() int {
	return c.offset + c.cursor
}

func (c *scanContext) typeAt(pos int) charType {
	return c.types[pos-c.offset]
}

func (c *scanContext) moveCursor() bool {
	if c.cursor < len(c.buff)-1 {
		c.cursor++
		return true
	}
	return false
}

func (c *scanContext) lock(bit uint8, locked bool) {
	if locked {
		c.locks |= bit
	} else {
		c.locks &^= bit
	}
}

func (c *scanContext) locked() bool {
	return c.locks != 0
}

// canExtend reports whether the buffer may still grow.
func (c *scanContext) canExtend() bool {
	return !c.eof && len(c.buff) < c.limit
}

// consumed reports whether the cursor is on the last rune this round will
// see. Scanners flush their state when it is.
func (c *scanContext) consumed() bool {
	return c.cursor == len(c.buff)-1 && !c.canExtend()
}

// needRefill reports whether a full buffer is close enough to its end,
// with no scanner mid-word, to cut the round here.
func (c *scanContext) needRefill() bool {
	n := len(c.buff)
	return n >= c.size &&
		c.cursor < n-1 &&
		c.cursor > n-c.critical &&
		!c.locked()
}

func (c *scanContext) addCandidate(l Lexeme) bool {
	return c.candidates.add(l)
}

func (c *scanContext) addPath(p *lexemePath) {
	if p != nil && p.size() > 0 {
		c.paths[p.begin] = p
	}
}

// holds reports whether cross reaches past the hold offset, so it may still
// grow with lexemes found in the next round.
func (c *scanContext) holds(cross *lexemePath) bool {
	return c.hold >= 0 && cross.size() > 0 && cross.end > c.hold
}

// keep returns candidates to the set for the next round and moves the hold
// offset back to the first of them.
func (c *scanContext) keep(candidates []Lexeme) {
	if len(candidates) == 0 {
		return
	}
	c.hold = min(c.hold, candidates[0].Begin)
	for _, l := range candidates {
		c.candidates.add(l)
	}
}

// outputToResult emits the arbitrated paths of this round in order and
// fills every uncovered Chinese or other-CJK rune with a single-rune lexeme.
// A held round stops at the hold offset; the rest is emitted later.
func (c *scanContext) outputToResult() {
	end := c.pos() + 1
	if c.hold >= 0 {
		end = c.hold
	}
	for index := c.offset; index < end; {
		if c.typeAt(index) == charUseless {
			index++
			continue
		}
		path, ok := c.paths[index]
		if !ok {
			c.outputSingle(index)
			index++
			continue
		}
		for _, l := range path.lexemes {
			for ; index < l.Begin; index++ {
				c.outputSingle(index)
			}
			c.emit(l)
			index = max(index, l.End())
		}
	}
	clear(c.paths)
	c.scanned = end - c.offset
	c.next = c.pos() + 1
	c.pending = c.hold >= 0
	c.hold = -1
}

func (c *scanContext) outputSingle(pos int) {
	switch c.typeAt(pos) {
	case charChinese:
		c.emit(Lexeme{Begin: pos, Length: 1, Type: TypeCNChar})
	case charOtherCJK:
		c.emit(Lexeme{Begin: pos, Length: 1, Type: TypeOtherCJK})
	}
}

func (c *scanContext) emit(l Lexeme) {
	l.Text = string(c.buff[l.Begin-c.offset : l.End()-c.offset])
	c.results = append(c.results, l)
}

// nextLexeme pops the next result, merging numerals with following count
// words in smart mode and skipping stopwords.
func (c *scanContext) nextLexeme(smart bool) (Lexeme, bool) {
	for len(c.results) > 0 {
		// a compound looks two results ahead
		if smart && c.pending && len(c.results) < 3 {
			return Lexeme{}, false
		}
		l := c.pop()
		if smart {
			c.compound(&l)
		}
		r := []rune(l.Text)
		if c.dict.IsStopWord(r, 0, len(r)) {
			continue
		}
		return l, true
	}
	return Lexeme{}, false
}

func (c *scanContext) pop() Lexeme {
	l := c.results[0]
	c.results = c.results[1:]
	if len(c.results) == 0 {
		c.results = nil
	}
	return l
}

func (c *scanContext) compound(l *Lexeme) {
	if len(c.results) == 0 {
		return
	}
	if l.Type == TypeArabic {
		next := c.results[0]
		merged := false
		switch next.Type {
		case TypeCNum:
			merged = l.append(next, TypeCNum)
		case TypeCount:
			merged = l.append(next, TypeCQuan)
		}
		if merged {
			c.pop()
		}
	}
	if l.Type == TypeCNum && len(c.results) > 0 {
		if next := c.results[0]; next.Type == TypeCount && l.append(next, TypeCQuan) {
			c.pop()
		}
	}
}
