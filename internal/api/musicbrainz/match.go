package musicbrainz

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var trailingParens = regexp.MustCompile(`\s*[(\[][^)\]]*[)\]]\s*$`)

// NormalizeTitle reduces a track title to a canonical comparison form:
// NFKD-decompose and drop non-ASCII, strip trailing parenthetical or
// bracketed suffixes, drop apostrophes, replace remaining punctuation with
// spaces, lowercase, and collapse whitespace. Normalizing an already
// normalized string is a no-op.
func NormalizeTitle(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	for _, r := range decomposed {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	s = b.String()

	for {
		stripped := trailingParens.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}

	s = strings.ReplaceAll(s, "'", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// TitlesMatch reports whether two titles refer to the same track: their
// normalized forms are equal, or one contains the other.
func TitlesMatch(a, b string) bool {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}

// topTagNames returns up to the 3 most popular tag names, genres taking
// precedence over folksonomy tags.
func topTagNames(genres, tags []TagCount) []string {
	list := genres
	if len(list) == 0 {
		list = tags
	}
	if len(list) == 0 {
		return nil
	}

	sorted := make([]TagCount, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })

	names := make([]string, 0, 3)
	for _, t := range sorted {
		if t.Name == "" {
			continue
		}
		names = append(names, t.Name)
		if len(names) == 3 {
			break
		}
	}
	return names
}
