package wordlist

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/teatak/ikseg/util"
)

// Word is one word-list entry. Freq is 0 when the list carries no counts.
type Word struct {
	Text string
	Freq int
}

// CleanOptions controls Clean.
type CleanOptions struct {
	// Ratio drops a word that is a prefix or suffix of a neighbouring longer
	// word when Freq(longer)/Freq(word) >= Ratio. Zero disables pruning;
	// words without counts are never pruned.
	Ratio float64
	// KeepFreq writes the merged count after each word.
	KeepFreq bool
	// Remove lists words to drop, e.g. the output of Interference.
	Remove []string
}

// CleanStats summarizes a Clean run.
type CleanStats struct {
	Read        int `json:"read"`
	Punctuation int `json:"punctuation"`
	Duplicates  int `json:"duplicates"`
	Pruned      int `json:"pruned"`
	Removed     int `json:"removed"`
	Written     int `json:"written"`
}

// Clean reads a word list, normalizes every entry the way the dictionary
// loader does, drops entries containing punctuation and duplicates, and
// writes the rest sorted, one per line.
func Clean(r io.Reader, w io.Writer, opts CleanOptions) (CleanStats, error) {
	var stats CleanStats
	words, err := Read(r, &stats)
	if err != nil {
		return stats, err
	}

	if opts.Ratio > 0 {
		before := len(words)
		words = pruneSuffixes(prunePrefixes(words, opts.Ratio), opts.Ratio)
		stats.Pruned = before - len(words)
	}

	if len(opts.Remove) > 0 {
		drop := make(map[string]bool, len(opts.Remove))
		for _, word := range opts.Remove {
			drop[util.NormalizeWord(word)] = true
		}
		kept := words[:0]
		for _, word := range words {
			if drop[word.Text] {
				stats.Removed++
				continue
			}
			kept = append(kept, word)
		}
		words = kept
	}

	sortWords(words)
	bw := bufio.NewWriter(w)
	for _, word := range words {
		if opts.KeepFreq && word.Freq > 0 {
			fmt.Fprintf(bw, "%s %d\n", word.Text, word.Freq)
		} else {
			fmt.Fprintln(bw, word.Text)
		}
	}
	stats.Written = len(words)
	return stats, bw.Flush()
}

// Read parses "word [freq]" lines, merging the counts of entries that
// normalize to the same word. stats may be nil.
func Read(r io.Reader, stats *CleanStats) ([]Word, error) {
	if stats == nil {
		stats = &CleanStats{}
	}
	merged := make(map[string]int)
	var order []string

	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		parts := strings.Fields(line)
		if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
			continue
		}
		stats.Read++

		text := util.NormalizeWord(parts[0])
		freq := 0
		if len(parts) > 1 {
			freq, _ = strconv.Atoi(parts[1])
		}
		if util.ContainsPunctuation(text) {
			stats.Punctuation++
			continue
		}
		if _, ok := merged[text]; ok {
			stats.Duplicates++
		} else {
			order = append(order, text)
		}
		merged[text] += max(freq, 0)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}

	words := make([]Word, 0, len(order))
	for _, text := range order {
		words = append(words, Word{Text: text, Freq: merged[text]})
	}
	return words, nil
}

func sortWords(words []Word) {
	slices.SortFunc(words, func(a, b Word) int {
		return strings.Compare(a.Text, b.Text)
	})
}

func prunePrefixes(words []Word, ratio float64) []Word {
	sortWords(words)

	keep := make([]bool, len(words))
	for i := range keep {
		keep[i] = true
	}

	// A, AB, ABC sort next to each other. If most occurrences of A are
	// inside AB, A is noise.
	for i := 0; i < len(words)-1; i++ {
		curr, next := words[i], words[i+1]
		if curr.Freq <= 0 || next.Freq <= 0 {
			continue
		}
		if strings.HasPrefix(next.Text, curr.Text) {
			if float64(next.Freq)/float64(curr.Freq) >= ratio {
				keep[i] = false
			}
		}
	}

	var res []Word
	for i, w := range words {
		if keep[i] {
			res = append(res, w)
		}
	}
	return res
}

func pruneSuffixes(words []Word, ratio float64) []Word {
	for i := range words {
		words[i].Text = reverse(words[i].Text)
	}
	cleaned := prunePrefixes(words, ratio)
	for i := range cleaned {
		cleaned[i].Text = reverse(cleaned[i].Text)
	}
	return cleaned
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
