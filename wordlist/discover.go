package wordlist

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"unicode"

	"github.com/teatak/ikseg/util"
)

// DiscoverOptions controls Discover.
type DiscoverOptions struct {
	// Threshold is the minimum number of occurrences.
	Threshold int
	// MaxGram is the longest n-gram counted.
	MaxGram int
	// Known reports words the dictionary already has. Optional.
	Known func(word string) bool
}

// DefaultDiscoverOptions counts 2- to 4-grams seen at least 3 times.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{Threshold: 3, MaxGram: 4}
}

// Discover counts the Han n-grams of a text and returns the frequent ones
// that are not known words, most frequent first.
func Discover(r io.Reader, opts DiscoverOptions) ([]Word, error) {
	if opts.MaxGram < 2 {
		opts.MaxGram = 2
	}
	if opts.Threshold < 1 {
		opts.Threshold = 1
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	counts := make(map[string]int)
	for scanner.Scan() {
		for _, block := range splitToBlocks(scanner.Text()) {
			runes := []rune(block)
			n := len(runes)
			for i := 0; i < n; i++ {
				for k := 2; k <= opts.MaxGram && i+k <= n; k++ {
					counts[string(runes[i:i+k])]++
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	var words []Word
	for w, c := range counts {
		if c < opts.Threshold {
			continue
		}
		if opts.Known != nil && opts.Known(w) {
			continue
		}
		words = append(words, Word{Text: w, Freq: c})
	}
	slices.SortFunc(words, func(a, b Word) int {
		if a.Freq != b.Freq {
			return b.Freq - a.Freq
		}
		if a.Text < b.Text {
			return -1
		}
		if a.Text > b.Text {
			return 1
		}
		return 0
	})
	return words, nil
}

// splitToBlocks returns the runs of Han characters in s, regularized.
func splitToBlocks(s string) []string {
	var blocks []string
	var current []rune

	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			current = append(current, util.Regularize(r, true))
			continue
		}
		if len(current) > 1 {
			blocks = append(blocks, string(current))
		}
		current = nil
	}
	if len(current) > 1 {
		blocks = append(blocks, string(current))
	}
	return blocks
}
