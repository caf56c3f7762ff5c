package rename

import (
	"fmt"
	"regexp"
	"strings"

	"tagfix/internal/shared"
	"tagfix/internal/tag"
)

// Tokens lists the pattern placeholders in documentation order.
var Tokens = []string{
	"%artist%", "%albumartist%", "%album%", "%title%",
	"%track%", "%disc%", "%year%", "%genre%",
}

var tokenField = map[string]tag.Field{
	"artist":      tag.FieldArtist,
	"albumartist": tag.FieldAlbumArtist,
	"album":       tag.FieldAlbum,
	"title":       tag.FieldTitle,
	"track":       tag.FieldTrack,
	"disc":        tag.FieldDisc,
	"year":        tag.FieldYear,
	"genre":       tag.FieldGenre,
}

var tokenPattern = regexp.MustCompile(`%([a-z]+)%`)

// Expand renders the pattern from the record's fields and sanitizes the
// result into a safe filename. The extension is the caller's business.
func Expand(rec *tag.Record, pattern string) (string, error) {
	if strings.TrimSpace(pattern) == "" {
		return "", fmt.Errorf("empty rename pattern")
	}

	var badToken string
	out := tokenPattern.ReplaceAllStringFunc(pattern, func(m string) string {
		field, ok := tokenField[strings.Trim(m, "%")]
		if !ok {
			badToken = m
			return m
		}
		value := rec.Get(field)
		if field == tag.FieldTrack || field == tag.FieldDisc {
			value = padNumber(value)
		}
		return value
	})
	if badToken != "" {
		return "", fmt.Errorf("unknown rename token %s", badToken)
	}

	if strings.Trim(out, " .-_") == "" {
		return "", fmt.Errorf("pattern %q expanded to an empty name", pattern)
	}
	return shared.SanitizeFileName(strings.TrimSpace(out)), nil
}

// padNumber turns "3" or "3/12" into "03". Totals are dropped: they have
// no place in a filename.
func padNumber(v string) string {
	num := v
	if i := strings.IndexByte(num, '/'); i >= 0 {
		num = num[:i]
	}
	num = strings.TrimSpace(num)
	if len(num) == 1 {
		return "0" + num
	}
	return num
}

// Parse matches a filename (without extension) against the pattern and
// returns the field values each token captured. Tokens capture
// non-greedily except the last one, which takes the rest of the name.
func Parse(filename, pattern string) (map[tag.Field]string, error) {
	matches := tokenPattern.FindAllStringSubmatchIndex(pattern, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("pattern %q contains no tokens", pattern)
	}

	var expr strings.Builder
	expr.WriteString("^")
	var fields []tag.Field
	last := 0
	for i, m := range matches {
		name := pattern[m[2]:m[3]]
		field, ok := tokenField[name]
		if !ok {
			return nil, fmt.Errorf("unknown rename token %%%s%%", name)
		}
		expr.WriteString(regexp.QuoteMeta(pattern[last:m[0]]))
		if i == len(matches)-1 {
			expr.WriteString("(.+)")
		} else {
			expr.WriteString("(.+?)")
		}
		fields = append(fields, field)
		last = m[1]
	}
	expr.WriteString(regexp.QuoteMeta(pattern[last:]))
	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("invalid rename pattern: %w", err)
	}
	groups := re.FindStringSubmatch(filename)
	if groups == nil {
		return nil, fmt.Errorf("filename %q does not match pattern %q", filename, pattern)
	}

	values := make(map[tag.Field]string, len(fields))
	for i, f := range fields {
		values[f] = strings.TrimSpace(groups[i+1])
	}
	return values, nil
}
