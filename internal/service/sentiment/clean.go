package sentiment

import (
	"regexp"
	"strings"
)

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
	sigilPattern   = regexp.MustCompile(`[$#](\w)`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// CleanText normalizes a raw social post for classification: URLs and
// @mentions are removed, cashtag and hashtag sigils are stripped while
// the tag word itself is kept, and whitespace is collapsed to single
// spaces. The function is idempotent: CleanText(CleanText(s)) equals
// CleanText(s) for every input.
func CleanText(s string) string {
	s = urlPattern.ReplaceAllString(s, " ")
	s = mentionPattern.ReplaceAllString(s, " ")
	s = sigilPattern.ReplaceAllString(s, "$1")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
