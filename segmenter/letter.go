package segmenter

import "strings"

const (
	letterConnectors = "#&+-.@_"
	numConnectors    = ",."
)

// letterScanner finds English words, Arabic numbers and mixed
// letter/digit runs such as "utf-8" or "user@example.com".
type letterScanner struct {
	start, end               int // mixed run
	englishStart, englishEnd int
	arabicStart, arabicEnd   int
}

func newLetterScanner() *letterScanner {
	s := &letterScanner{}
	s.reset()
	return s
}

func (s *letterScanner) reset() {
	s.start, s.end = -1, -1
	s.englishStart, s.englishEnd = -1, -1
	s.arabicStart, s.arabicEnd = -1, -1
}

func (s *letterScanner) scan(c *scanContext) {
	locked := s.scanEnglish(c)
	locked = s.scanArabic(c) || locked
	locked = s.scanMix(c) || locked
	c.lock(lockLetter, locked)
}

func (s *letterScanner) flush(c *scanContext) {
	if s.englishStart != -1 {
		s.emitEnglish(c)
	}
	if s.arabicStart != -1 {
		s.emitArabic(c)
	}
	if s.start != -1 {
		s.emitMix(c)
	}
	c.lock(lockLetter, false)
}

func (s *letterScanner) held() int {
	return earliest(earliest(s.start, s.englishStart), s.arabicStart)
}

func (s *letterScanner) scanEnglish(c *scanContext) bool {
	english := c.currentType() == charEnglish
	if s.englishStart == -1 {
		if english {
			s.englishStart, s.englishEnd = c.pos(), c.pos()
		}
	} else if english {
		s.englishEnd = c.pos()
	} else {
		s.emitEnglish(c)
	}
	if c.consumed() && s.englishStart != -1 {
		s.emitEnglish(c)
	}
	return s.englishStart != -1
}

func (s *letterScanner) scanArabic(c *scanContext) bool {
	arabic := c.currentType() == charArabic
	if s.arabicStart == -1 {
		if arabic {
			s.arabicStart, s.arabicEnd = c.pos(), c.pos()
		}
	} else if arabic {
		s.arabicEnd = c.pos()
	} else if !isConnector(c, numConnectors) {
		s.emitArabic(c)
	}
	if c.consumed() && s.arabicStart != -1 {
		s.emitArabic(c)
	}
	return s.arabicStart != -1
}

func (s *letterScanner) scanMix(c *scanContext) bool {
	letter := c.currentType() == charArabic || c.currentType() == charEnglish
	if s.start == -1 {
		if letter {
			s.start, s.end = c.pos(), c.pos()
		}
	} else if letter {
		s.end = c.pos()
	} else if !isConnector(c, letterConnectors) {
		s.emitMix(c)
	}
	if c.consumed() && s.start != -1 {
		s.emitMix(c)
	}
	return s.start != -1
}

// isConnector reports whether the cursor is on one of connectors. A
// connector keeps a run open without extending it, so runs never end in one.
func isConnector(c *scanContext, connectors string) bool {
	return c.currentType() == charUseless && strings.ContainsRune(connectors, c.current())
}

func (s *letterScanner) emitEnglish(c *scanContext) {
	c.addCandidate(Lexeme{Begin: s.englishStart, Length: s.englishEnd - s.englishStart + 1, Type: TypeEnglish})
	s.englishStart, s.englishEnd = -1, -1
}

func (s *letterScanner) emitArabic(c *scanContext) {
	c.addCandidate(Lexeme{Begin: s.arabicStart, Length: s.arabicEnd - s.arabicStart + 1, Type: TypeArabic})
	s.arabicStart, s.arabicEnd = -1, -1
}

func (s *letterScanner) emitMix(c *scanContext) {
	c.addCandidate(Lexeme{Begin: s.start, Length: s.end - s.start + 1, Type: TypeLetter})
	s.start, s.end = -1, -1
}
