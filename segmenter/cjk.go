package segmenter

import "github.com/teatak/ikseg/dictionary"

// cjkScanner matches main-dictionary words, tracking every word that may
// still be extended by the next rune.
type cjkScanner struct {
	hits []dictionary.Hit
}

func newCJKScanner() *cjkScanner {
	return &cjkScanner{}
}

func (s *cjkScanner) reset() {
	s.hits = s.hits[:0]
}

func (s *cjkScanner) flush(c *scanContext) {
	s.reset()
	c.lock(lockCJK, false)
}

func (s *cjkScanner) held() int {
	hold := -1
	for _, h := range s.hits {
		hold = earliest(hold, h.Begin)
	}
	return hold
}

func (s *cjkScanner) scan(c *scanContext) {
	if c.currentType() == charUseless {
		s.hits = s.hits[:0]
	} else {
		ch, pos := c.current(), c.pos()
		kept := s.hits[:0]
		for _, h := range s.hits {
			next := c.dict.MatchWithHit(ch, pos, h)
			if next.IsMatch() {
				c.addCandidate(Lexeme{Begin: next.Begin, Length: pos - next.Begin + 1, Type: TypeCNWord})
			}
			if next.IsPrefix() {
				kept = append(kept, next)
			}
		}
		s.hits = kept

		single := c.dict.MatchMainChar(ch, pos)
		if single.IsMatch() {
			c.addCandidate(Lexeme{Begin: pos, Length: 1, Type: TypeCNWord})
		}
		if single.IsPrefix() {
			s.hits = append(s.hits, single)
		}
	}
	if c.consumed() {
		s.hits = s.hits[:0]
	}
	c.lock(lockCJK, len(s.hits) > 0)
}
