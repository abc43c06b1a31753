package segmenter

import (
	"strings"

	"github.com/teatak/ikseg/dictionary"
)

const chineseNumerals = "一二两三四五六七八九十零壹贰叁肆伍陆柒捌玖拾百千万亿佰仟萬億兆卅廿"

type countHit struct {
	hit dictionary.Hit
	// numBegin is the start of the numeral directly before the count
	// word, or -1.
	numBegin int
}

// quantifierScanner finds Chinese numerals and the count words that
// follow a numeral. A count word right after a numeral also yields one
// lexeme covering both, such as "三个" or "5公里".
type quantifierScanner struct {
	numStart, numEnd int
	// the last numeral run emitted
	lastNumBegin, lastNumEnd int
	hits                     []countHit
}

func newQuantifierScanner() *quantifierScanner {
	s := &quantifierScanner{}
	s.reset()
	return s
}

func (s *quantifierScanner) reset() {
	s.numStart, s.numEnd = -1, -1
	s.lastNumBegin, s.lastNumEnd = -1, -1
	s.hits = s.hits[:0]
}

func (s *quantifierScanner) scan(c *scanContext) {
	s.scanNumber(c)
	s.scanCount(c)
	c.lock(lockQuantifier, s.numStart != -1 || len(s.hits) > 0)
}

func (s *quantifierScanner) flush(c *scanContext) {
	if s.numStart != -1 {
		s.emitNumber(c)
	}
	s.hits = s.hits[:0]
	c.lock(lockQuantifier, false)
}

func (s *quantifierScanner) held() int {
	hold := s.numStart
	for _, h := range s.hits {
		hold = earliest(earliest(hold, h.hit.Begin), h.numBegin)
	}
	return hold
}

func isChineseNumeral(r rune) bool {
	return strings.ContainsRune(chineseNumerals, r)
}

func (s *quantifierScanner) scanNumber(c *scanContext) {
	numeral := c.currentType() == charChinese && isChineseNumeral(c.current())
	if s.numStart == -1 {
		if numeral {
			s.numStart, s.numEnd = c.pos(), c.pos()
		}
	} else if numeral {
		s.numEnd = c.pos()
	} else {
		s.emitNumber(c)
	}
	if c.consumed() && s.numStart != -1 {
		s.emitNumber(c)
	}
}

func (s *quantifierScanner) emitNumber(c *scanContext) {
	c.addCandidate(Lexeme{Begin: s.numStart, Length: s.numEnd - s.numStart + 1, Type: TypeCNum})
	s.lastNumBegin, s.lastNumEnd = s.numStart, s.numEnd
	s.numStart, s.numEnd = -1, -1
}

// numeralBefore returns the start of a numeral ending right before pos, or -1.
func (s *quantifierScanner) numeralBefore(c *scanContext, pos int) int {
	if s.lastNumBegin != -1 && s.lastNumEnd == pos-1 {
		return s.lastNumBegin
	}
	if l, ok := c.candidates.last(); ok && (l.Type == TypeCNum || l.Type == TypeArabic) && l.End() == pos {
		return l.Begin
	}
	return -1
}

func (s *quantifierScanner) scanCount(c *scanContext) {
	pos := c.pos()
	anchor := s.numeralBefore(c, pos)
	if s.numStart == -1 && len(s.hits) == 0 && anchor == -1 {
		return
	}

	if c.currentType() != charChinese {
		s.hits = s.hits[:0]
		return
	}

	ch := c.current()
	kept := s.hits[:0]
	for _, h := range s.hits {
		next := c.dict.MatchWithHit(ch, pos, h.hit)
		if next.IsMatch() {
			s.emitCount(c, next.Begin, pos, h.numBegin)
		}
		if next.IsPrefix() {
			kept = append(kept, countHit{hit: next, numBegin: h.numBegin})
		}
	}
	s.hits = kept

	single := c.dict.MatchQuantifierChar(ch, pos)
	if single.IsMatch() {
		s.emitCount(c, pos, pos, anchor)
	}
	if single.IsPrefix() {
		s.hits = append(s.hits, countHit{hit: single, numBegin: anchor})
	}

	if c.consumed() {
		s.hits = s.hits[:0]
	}
}

func (s *quantifierScanner) emitCount(c *scanContext, begin, end, numBegin int) {
	c.addCandidate(Lexeme{Begin: begin, Length: end - begin + 1, Type: TypeCount})
	if numBegin != -1 {
		c.addCandidate(Lexeme{Begin: numBegin, Length: end - numBegin + 1, Type: TypeCQuan})
	}
}
