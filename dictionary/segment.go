package dictionary

import (
	"sort"
	"sync"
)

// arrayLimit is the number of children a node keeps in its sorted array
// before it switches to map storage.
const arrayLimit = 3

// segment is one node of the dictionary trie.
// Lookups never lock; mutation happens only on tries that are not yet
// published in a Dictionary snapshot, and mu guards it against concurrent fills.
type segment struct {
	char  rune
	state int // 1 marks the end of an enabled word

	mu       sync.Mutex
	array    []*segment
	children map[rune]*segment
	size     int
}

func newSegment(char rune) *segment {
	return &segment{char: char}
}

func (s *segment) hasNext() bool {
	return s.size > 0
}

// match walks chars[begin:begin+length] from s.
func (s *segment) match(chars []rune, begin, length int) Hit {
	hit := Hit{Begin: begin, End: begin}
	if length <= 0 {
		return hit
	}
	node := s
	for i := 0; i < length; i++ {
		hit.End = begin + i
		next := node.lookup(chars[begin+i])
		if next == nil {
			return hit
		}
		node = next
	}
	hit.mark(node)
	return hit
}

// next continues hit by one rune at position pos.
func (s *segment) next(ch rune, pos int, hit Hit) Hit {
	hit.End = pos
	hit.state = stateUnmatch
	hit.node = nil
	if child := s.lookup(ch); child != nil {
		hit.mark(child)
	}
	return hit
}

// fill inserts word with the given state. State 0 disables an existing word
// and never creates nodes.
func (s *segment) fill(word []rune, state int) {
	node := s
	for _, ch := range word {
		node = node.find(ch, state == 1)
		if node == nil {
			return
		}
	}
	if len(word) > 0 {
		node.state = state
	}
}

func (s *segment) lookup(ch rune) *segment {
	if s.children != nil {
		return s.children[ch]
	}
	arr := s.array
	i := sort.Search(len(arr), func(i int) bool { return arr[i].char >= ch })
	if i < len(arr) && arr[i].char == ch {
		return arr[i]
	}
	return nil
}

func (s *segment) find(ch rune, create bool) *segment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if found := s.lookup(ch); found != nil || !create {
		return found
	}

	child := newSegment(ch)
	if s.children == nil && s.size < arrayLimit {
		i := sort.Search(len(s.array), func(i int) bool { return s.array[i].char >= ch })
		s.array = append(s.array, nil)
		copy(s.array[i+1:], s.array[i:])
		s.array[i] = child
		s.size++
		return child
	}
	if s.children == nil {
		s.children = make(map[rune]*segment, arrayLimit*2)
		for _, c := range s.array {
			s.children[c.char] = c
		}
		s.array = nil
	}
	s.children[ch] = child
	s.size++
	return child
}

func (s *segment) each(fn func(*segment)) {
	if s.children != nil {
		for _, c := range s.children {
			fn(c)
		}
		return
	}
	for _, c := range s.array {
		fn(c)
	}
}

// clone returns a deep copy of the subtree rooted at s.
func (s *segment) clone() *segment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := &segment{char: s.char, state: s.state, size: s.size}
	if s.children != nil {
		out.children = make(map[rune]*segment, len(s.children))
		for ch, c := range s.children {
			out.children[ch] = c.clone()
		}
		return out
	}
	if len(s.array) > 0 {
		out.array = make([]*segment, len(s.array))
		for i, c := range s.array {
			out.array[i] = c.clone()
		}
	}
	return out
}

// count returns the number of enabled words below s.
func (s *segment) count() int {
	n := 0
	s.each(func(c *segment) {
		if c.state == 1 {
			n++
		}
		n += c.count()
	})
	return n
}
