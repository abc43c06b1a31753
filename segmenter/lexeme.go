package segmenter

import (
	"encoding/json"
	"sort"
)

// Type tags the kind of text a lexeme covers.
type Type int

const (
	TypeUnknown  Type = 0
	TypeEnglish  Type = 1
	TypeArabic   Type = 2
	TypeLetter   Type = 3 // mixed letters and digits
	TypeCNWord   Type = 4
	TypeOtherCJK Type = 8
	TypeCNum     Type = 16
	TypeCount    Type = 32
	TypeCQuan    Type = 48 // numeral + count word
	TypeCNChar   Type = 64
)

func (t Type) String() string {
	switch t {
	case TypeEnglish:
		return "ENGLISH"
	case TypeArabic:
		return "ARABIC"
	case TypeLetter:
		return "LETTER"
	case TypeCNWord:
		return "CN_WORD"
	case TypeCNChar:
		return "CN_CHAR"
	case TypeOtherCJK:
		return "OTHER_CJK"
	case TypeCount:
		return "COUNT"
	case TypeCNum:
		return "TYPE_CNUM"
	case TypeCQuan:
		return "TYPE_CQUAN"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the type name in JSON output.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Lexeme is one token. Begin and Length count runes from the start of the
// input stream.
type Lexeme struct {
	Begin  int    `json:"begin"`
	Length int    `json:"length"`
	Text   string `json:"text"`
	Type   Type   `json:"type"`
}

// End is the stream offset just past the lexeme.
func (l Lexeme) End() int {
	return l.Begin + l.Length
}

// MarshalJSON encodes the lexeme with its end offset.
func (l Lexeme) MarshalJSON() ([]byte, error) {
	type plain Lexeme
	return json.Marshal(struct {
		plain
		End int `json:"end"`
	}{plain(l), l.End()})
}

// before orders lexemes by begin ascending, then length descending.
func (l Lexeme) before(o Lexeme) bool {
	if l.Begin != o.Begin {
		return l.Begin < o.Begin
	}
	return l.Length > o.Length
}

func (l Lexeme) sameSpan(o Lexeme) bool {
	return l.Begin == o.Begin && l.Length == o.Length
}

// append merges next into l when it starts exactly where l ends.
func (l *Lexeme) append(next Lexeme, t Type) bool {
	if l.End() != next.Begin {
		return false
	}
	l.Length += next.Length
	l.Text += next.Text
	l.Type = t
	return true
}

// insertLexeme inserts l into the sorted list unless a lexeme with the same
// span is already present.
func insertLexeme(list []Lexeme, l Lexeme) ([]Lexeme, bool) {
	i := sort.Search(len(list), func(i int) bool { return !list[i].before(l) })
	if i < len(list) && list[i].sameSpan(l) {
		return list, false
	}
	list = append(list, Lexeme{})
	copy(list[i+1:], list[i:])
	list[i] = l
	return list, true
}

// lexemeSet collects the candidates of one scan round in lexeme order.
// The first lexeme added for a span wins.
type lexemeSet struct {
	items []Lexeme
}

func (s *lexemeSet) add(l Lexeme) bool {
	var ok bool
	s.items, ok = insertLexeme(s.items, l)
	return ok
}

func (s *lexemeSet) last() (Lexeme, bool) {
	if len(s.items) == 0 {
		return Lexeme{}, false
	}
	return s.items[len(s.items)-1], true
}

// drain returns all candidates in order and empties the set.
func (s *lexemeSet) drain() []Lexeme {
	items := s.items
	s.items = nil
	return items
}
