package textnorm

import (
	"regexp"
	"sort"
	"unicode"
)

var latinWordPattern = regexp.MustCompile(`[A-Za-z0-9]+`)

type tokenStat struct {
	token      string
	count      int
	firstIndex int
}

// ExtractKeywords returns up to k terms from text, ordered by frequency
// then by first occurrence. Tokenization is Chinese-aware but
// deliberately lightweight (no external segmentation library): runs of
// Han characters are split into overlapping 2- and 3-character n-grams,
// and runs of Latin letters/digits are kept as whole words. Stopwords
// and single-character tokens are discarded.
func ExtractKeywords(text string, k int) []string {
	if text == "" || k <= 0 {
		return nil
	}

	stats := make(map[string]*tokenStat)
	index := 0
	record := func(tok string) {
		if tok == "" || isStopword(tok) {
			return
		}
		if s, ok := stats[tok]; ok {
			s.count++
		} else {
			stats[tok] = &tokenStat{token: tok, count: 1, firstIndex: index}
		}
		index++
	}

	runes := []rune(text)
	i := 0
	for i < len(runes) {
		if unicode.Is(unicode.Han, runes[i]) {
			j := i
			for j < len(runes) && unicode.Is(unicode.Han, runes[j]) {
				j++
			}
			hanRun := runes[i:j]
			for n := 2; n <= 3; n++ {
				for start := 0; start+n <= len(hanRun); start++ {
					record(string(hanRun[start : start+n]))
				}
			}
			i = j
			continue
		}
		i++
	}

	for _, word := range latinWordPattern.FindAllString(text, -1) {
		if len(word) < 2 {
			continue
		}
		record(word)
	}

	ordered := make([]*tokenStat, 0, len(stats))
	for _, s := range stats {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].firstIndex < ordered[j].firstIndex
	})

	if len(ordered) > k {
		ordered = ordered[:k]
	}
	result := make([]string, len(ordered))
	for i, s := range ordered {
		result[i] = s.token
	}
	return result
}
