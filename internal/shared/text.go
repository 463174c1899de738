package shared

import (
	"regexp"
	"strings"

	"github.com/adrg/strutil"
)

var (
	audioExtRe     = regexp.MustCompile(`\.(mp3|wav|flac|aac|m4a|ogg|aiff)$`)
	trackNumberRe  = regexp.MustCompile(`^\d+\s*[-.]?\s*`)
	trailingNumRe  = regexp.MustCompile(`\s*[-.]?\s*\d+\s*$`)
	leadingArticle = regexp.MustCompile(`^(the|a|an)\s+`)
)

// CleanTitle normalizes a track title for provider queries and candidate
// scoring: lowercases, strips audio file extensions, leading track-number
// prefixes and trailing numeric suffixes.
//
// The same cleaning must be applied to provider-returned titles before
// scoring them against the query, otherwise the comparison is meaningless.
// Cleaning is idempotent.
func CleanTitle(title string) string {
	clean := strings.ToLower(title)
	clean = audioExtRe.ReplaceAllString(clean, "")
	clean = trackNumberRe.ReplaceAllString(clean, "")
	clean = trailingNumRe.ReplaceAllString(clean, "")
	return strings.TrimSpace(clean)
}

// CleanArtist normalizes an artist name for provider queries: lowercases and
// strips exactly one leading English article.
func CleanArtist(artist string) string {
	clean := strings.ToLower(artist)
	clean = leadingArticle.ReplaceAllString(clean, "")
	return strings.TrimSpace(clean)
}

// wordJaccard is a [strutil.StringMetric] computing Jaccard similarity over
// whitespace-tokenized word sets. Character n-gram metrics punish the
// punctuation noise common in track titles; whole-word overlap does not.
type wordJaccard struct{}

func (wordJaccard) Compare(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection

	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// Similarity scores two strings in [0, 1] using word-set Jaccard overlap.
// Symmetric; identical non-empty strings score 1.0, disjoint strings 0.0.
func Similarity(a, b string) float64 {
	return strutil.Similarity(a, b, wordJaccard{})
}
