package segmenter

import "cmp"

// lexemePath is an ordered run of lexemes spanning [begin, end).
// payload is the number of runes the lexemes cover.
type lexemePath struct {
	lexemes []Lexeme
	begin   int
	end     int
	payload int
}

func newLexemePath() *lexemePath {
	return &lexemePath{begin: -1, end: -1}
}

func (p *lexemePath) size() int {
	return len(p.lexemes)
}

func (p *lexemePath) span() int {
	return p.end - p.begin
}

// crosses reports whether l overlaps the span of p. An empty path crosses nothing.
func (p *lexemePath) crosses(l Lexeme) bool {
	return (l.Begin >= p.begin && l.Begin < p.end) ||
		(p.begin >= l.Begin && p.begin < l.End())
}

// addCross adds l when p is empty or l overlaps p. The payload of a cross
// path is its whole span.
func (p *lexemePath) addCross(l Lexeme) bool {
	if len(p.lexemes) == 0 {
		p.lexemes = append(p.lexemes, l)
		p.begin, p.end = l.Begin, l.End()
		p.payload += l.Length
		return true
	}
	if !p.crosses(l) {
		return false
	}
	p.lexemes, _ = insertLexeme(p.lexemes, l)
	if l.End() > p.end {
		p.end = l.End()
	}
	p.payload = p.end - p.begin
	return true
}

// addNotCross adds l when it overlaps nothing in p.
func (p *lexemePath) addNotCross(l Lexeme) bool {
	if len(p.lexemes) == 0 {
		p.lexemes = append(p.lexemes, l)
		p.begin, p.end = l.Begin, l.End()
		p.payload += l.Length
		return true
	}
	if p.crosses(l) {
		return false
	}
	p.lexemes, _ = insertLexeme(p.lexemes, l)
	p.payload += l.Length
	p.begin = p.lexemes[0].Begin
	p.end = p.lexemes[len(p.lexemes)-1].End()
	return true
}

func (p *lexemePath) removeTail() {
	if len(p.lexemes) == 0 {
		return
	}
	tail := p.lexemes[len(p.lexemes)-1]
	p.lexemes = p.lexemes[:len(p.lexemes)-1]
	if len(p.lexemes) == 0 {
		p.begin, p.end, p.payload = -1, -1, 0
		return
	}
	p.payload -= tail.Length
	p.end = p.lexemes[len(p.lexemes)-1].End()
}

func (p *lexemePath) copy() *lexemePath {
	out := *p
	out.lexemes = append([]Lexeme(nil), p.lexemes...)
	return &out
}

// xWeight is the product of the lexeme lengths; even splits score higher.
func (p *lexemePath) xWeight() int {
	w := 1
	for _, l := range p.lexemes {
		w *= l.Length
	}
	return w
}

// pWeight weights each lexeme length by its 1-based position, favoring
// longer lexemes towards the end.
func (p *lexemePath) pWeight() int {
	w := 0
	for i, l := range p.lexemes {
		w += (i + 1) * l.Length
	}
	return w
}

// compare ranks two candidate paths of the same region. A negative result
// means p is the better segmentation.
func (p *lexemePath) compare(o *lexemePath) int {
	if c := cmp.Compare(o.payload, p.payload); c != 0 {
		return c
	}
	if c := cmp.Compare(p.size(), o.size()); c != 0 {
		return c
	}
	if c := cmp.Compare(o.span(), p.span()); c != 0 {
		return c
	}
	if c := cmp.Compare(o.end, p.end); c != 0 {
		return c
	}
	if c := cmp.Compare(o.xWeight(), p.xWeight()); c != 0 {
		return c
	}
	return cmp.Compare(o.pWeight(), p.pWeight())
}
