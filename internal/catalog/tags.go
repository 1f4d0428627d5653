package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var tagFolder = cases.Lower(language.Und)

// NormalizeTag trims and lowercases tag text. The result is the tag's unique
// key.
func NormalizeTag(text string) string {
	return tagFolder.String(strings.TrimSpace(text))
}
