package dictionary

import (
	"time"

	"github.com/teatak/ikseg/util"
)

// Dictionary is an immutable snapshot of the main, quantifier and stopword
// tries. It is safe for concurrent use by any number of segmenters and is
// replaced wholesale on reload.
type Dictionary struct {
	main       *segment
	quantifier *segment
	stop       *segment

	loadedAt time.Time
}

// Stats counts the enabled words of each trie.
type Stats struct {
	Main       int `json:"main"`
	Quantifier int `json:"quantifier"`
	Stop       int `json:"stop"`
}

func newDictionary(main, quantifier, stop *segment) *Dictionary {
	if main == nil {
		main = newSegment(0)
	}
	if quantifier == nil {
		quantifier = newSegment(0)
	}
	if stop == nil {
		stop = newSegment(0)
	}
	return &Dictionary{main: main, quantifier: quantifier, stop: stop, loadedAt: time.Now()}
}

// NewFromWords builds a snapshot from in-memory word lists.
// Words are normalized the same way input text is.
func NewFromWords(main, quantifier, stop []string) *Dictionary {
	return newDictionary(buildTrie(main), buildTrie(quantifier), buildTrie(stop))
}

func buildTrie(words []string) *segment {
	root := newSegment(0)
	fillWords(root, words, 1)
	return root
}

func fillWords(root *segment, words []string, state int) int {
	n := 0
	for _, w := range words {
		w = util.NormalizeWord(w)
		if w == "" {
			continue
		}
		root.fill([]rune(w), state)
		n++
	}
	return n
}

// Current returns d itself, so a fixed snapshot can be used wherever a
// provider of the live dictionary is expected.
func (d *Dictionary) Current() *Dictionary {
	return d
}

// LoadedAt is the time the snapshot was built.
func (d *Dictionary) LoadedAt() time.Time {
	return d.loadedAt
}

// MatchMain looks up chars[begin:begin+length] in the main trie.
func (d *Dictionary) MatchMain(chars []rune, begin, length int) Hit {
	return d.main.match(chars, begin, length)
}

// MatchMainChar starts a main-trie hit with the single rune ch at stream position pos.
func (d *Dictionary) MatchMainChar(ch rune, pos int) Hit {
	return d.main.next(ch, pos, Hit{Begin: pos})
}

// MatchQuantifier looks up chars[begin:begin+length] in the quantifier trie.
func (d *Dictionary) MatchQuantifier(chars []rune, begin, length int) Hit {
	return d.quantifier.match(chars, begin, length)
}

// MatchQuantifierChar starts a quantifier-trie hit with ch at stream position pos.
func (d *Dictionary) MatchQuantifierChar(ch rune, pos int) Hit {
	return d.quantifier.next(ch, pos, Hit{Begin: pos})
}

// MatchWithHit continues a prefix hit with the rune ch at stream position pos.
// A hit that is not a prefix cannot be continued and yields an unmatch.
func (d *Dictionary) MatchWithHit(ch rune, pos int, hit Hit) Hit {
	if hit.node == nil {
		hit.End = pos
		hit.state = stateUnmatch
		return hit
	}
	return hit.node.next(ch, pos, hit)
}

// IsStopWord reports whether chars[begin:begin+length] is a stopword.
func (d *Dictionary) IsStopWord(chars []rune, begin, length int) bool {
	return d.stop.match(chars, begin, length).IsMatch()
}

// Contains reports whether word is an enabled main-dictionary word.
func (d *Dictionary) Contains(word string) bool {
	r := []rune(util.NormalizeWord(word))
	return d.main.match(r, 0, len(r)).IsMatch()
}

// IsStop reports whether word is a stopword.
func (d *Dictionary) IsStop(word string) bool {
	r := []rune(util.NormalizeWord(word))
	return d.IsStopWord(r, 0, len(r))
}

// Stats counts the words in each trie. It walks the whole trie.
func (d *Dictionary) Stats() Stats {
	return Stats{
		Main:       d.main.count(),
		Quantifier: d.quantifier.count(),
		Stop:       d.stop.count(),
	}
}

// withMain returns a copy of d sharing the quantifier and stopword tries.
func (d *Dictionary) withMain(main *segment) *Dictionary {
	return &Dictionary{main: main, quantifier: d.quantifier, stop: d.stop, loadedAt: time.Now()}
}
