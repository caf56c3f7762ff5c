package romanize

import "github.com/gosimple/unidecode"

// Convert transliterates s into plain ASCII. Input that is already ASCII
// comes back unchanged.
func Convert(s string) string {
	return unidecode.Unidecode(s)
}
