package segmenter

// arbitrate groups the round's candidates into cross paths, clusters of
// lexemes that overlap one another, and records one path per cluster.
// In smart mode an ambiguous cluster is reduced to its best non-overlapping
// path; otherwise every candidate is kept. In a held round the first
// cluster reaching past the hold offset and everything after it wait for
// the next round.
func arbitrate(c *scanContext, smart bool) {
	candidates := c.candidates.drain()
	cross, start := newLexemePath(), 0
	for i, l := range candidates {
		if cross.addCross(l) {
			continue
		}
		if c.holds(cross) {
			c.keep(candidates[start:])
			return
		}
		c.addPath(settle(cross, smart))
		cross, start = newLexemePath(), i
		cross.addCross(l)
	}
	if c.holds(cross) {
		c.keep(candidates[start:])
		return
	}
	c.addPath(settle(cross, smart))
}

func settle(cross *lexemePath, smart bool) *lexemePath {
	if cross.size() <= 1 || !smart {
		return cross
	}
	return judge(cross)
}

// judge walks the cluster greedily, then, for each lexeme that conflicted,
// rolls the path back until that lexeme fits and walks on from it. The best
// path seen wins; on a tie the earlier one is kept.
func judge(cross *lexemePath) *lexemePath {
	option := newLexemePath()
	conflicts := forwardPath(cross.lexemes, 0, option)
	best := option.copy()

	for len(conflicts) > 0 {
		i := conflicts[len(conflicts)-1]
		conflicts = conflicts[:len(conflicts)-1]

		backPath(cross.lexemes[i], option)
		forwardPath(cross.lexemes, i, option)
		if option.compare(best) < 0 {
			best = option.copy()
		}
	}
	return best
}

// forwardPath adds lexemes[from:] to option, returning the indexes of the
// ones that overlapped it.
func forwardPath(lexemes []Lexeme, from int, option *lexemePath) []int {
	var conflicts []int
	for i := from; i < len(lexemes); i++ {
		if !option.addNotCross(lexemes[i]) {
			conflicts = append(conflicts, i)
		}
	}
	return conflicts
}

func backPath(l Lexeme, option *lexemePath) {
	for option.crosses(l) {
		option.removeTail()
	}
}
