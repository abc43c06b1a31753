package wordlist

import (
	"slices"
	"strings"

	"github.com/teatak/ikseg/util"
)

// Interference returns the words of dict that straddle a boundary of a
// hand-segmented feedback line. A feedback line is a sentence with its
// words separated by spaces, e.g. "南京市 长江大桥"; any dictionary word
// crossing one of those spaces ("市长") works against the intended split.
func Interference(dict []string, feedback []string) []string {
	words := make(map[string]bool, len(dict))
	for _, w := range dict {
		if w = util.NormalizeWord(w); w != "" {
			words[w] = true
		}
	}
	return InterferenceFunc(func(w string) bool { return words[w] }, feedback)
}

// InterferenceFunc is Interference against any word lookup, such as a live
// dictionary snapshot.
func InterferenceFunc(contains func(word string) bool, feedback []string) []string {
	found := make(map[string]bool)
	for _, line := range feedback {
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		for i := range parts {
			parts[i] = util.NormalizeWord(parts[i])
		}

		full := []rune(strings.Join(parts, ""))
		var boundaries []int
		offset := 0
		for _, p := range parts[:len(parts)-1] {
			offset += len([]rune(p))
			boundaries = append(boundaries, offset)
		}

		for start := 0; start < len(full); start++ {
			for end := start + 2; end <= len(full); end++ {
				if !straddles(boundaries, start, end) {
					continue
				}
				if sub := string(full[start:end]); contains(sub) {
					found[sub] = true
				}
			}
		}
	}

	out := make([]string, 0, len(found))
	for w := range found {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

func straddles(boundaries []int, start, end int) bool {
	for _, b := range boundaries {
		if start < b && b < end {
			return true
		}
	}
	return false
}
