package dictionary

const (
	stateUnmatch = 0
	stateMatch   = 1 << 0
	statePrefix  = 1 << 1
)

// Hit is the result of a trie lookup over the runes Begin..End (inclusive).
// A prefix hit remembers the node it reached so it can be continued one
// rune at a time.
type Hit struct {
	Begin int
	End   int

	state int
	node  *segment
}

func (h *Hit) mark(node *segment) {
	if node.state == 1 {
		h.state |= stateMatch
	}
	if node.hasNext() {
		h.state |= statePrefix
		h.node = node
	}
}

// IsMatch reports whether Begin..End is a complete word.
func (h Hit) IsMatch() bool { return h.state&stateMatch != 0 }

// IsPrefix reports whether Begin..End is a prefix of a longer word.
func (h Hit) IsPrefix() bool { return h.state&statePrefix != 0 }

// IsUnmatch reports whether Begin..End is neither a word nor a prefix.
func (h Hit) IsUnmatch() bool { return h.state == stateUnmatch }

// Len is the number of runes covered.
func (h Hit) Len() int { return h.End - h.Begin + 1 }
