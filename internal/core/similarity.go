package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xrash/smetrics"
)

// SimilarityFunc adapts an ordinary function to the Similarity interface.
// Arguments are put in a canonical order first so that every metric is symmetric.
type SimilarityFunc func(a, b string) float64

// Compare implements Similarity
func (f SimilarityFunc) Compare(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	if a > b {
		a, b = b, a
	}
	return f(a, b)
}

// NewSimilarity returns the metric registered under name
func NewSimilarity(name string) (Similarity, error) {
	switch strings.ToLower(name) {
	case "", "dice":
		return SimilarityFunc(diceCoefficient), nil
	case "jaro-winkler", "jarowinkler":
		return SimilarityFunc(jaroWinkler), nil
	case "levenshtein":
		return SimilarityFunc(levenshteinRatio), nil
	default:
		return nil, fmt.Errorf("unsupported similarity metric: %s", name)
	}
}

// diceCoefficient compares the multisets of character bigrams of both strings
func diceCoefficient(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	bigrams := make(map[string]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		bigrams[string(ra[i:i+2])]++
	}

	intersection := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := string(rb[i : i+2])
		if bigrams[bg] > 0 {
			bigrams[bg]--
			intersection++
		}
	}

	return 2 * float64(intersection) / float64(len(ra)+len(rb)-2)
}

func jaroWinkler(a, b string) float64 {
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

func levenshteinRatio(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	distance := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return 1 - float64(distance)/float64(longest)
}
