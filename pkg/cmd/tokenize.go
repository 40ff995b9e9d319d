package cmd

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tokenRe matches a single-quoted span, a double-quoted span or a run of
// non-whitespace, in that order of preference.
var tokenRe = regexp.MustCompile(`'.*?'|".*?"|\S+`)

var quoteStripper = strings.NewReplacer(`'`, "", `"`, "")

// Tokenize turns one line of chat text into invocation arguments. It reports
// false when text does not start with prefix, when whitespace follows the
// prefix, or when nothing is left to tokenize.
//
// Quoted tokens lose every quote character, not only the enclosing pair.
// Quotes do not nest and there is no escaping.
func Tokenize(prefix, text string) ([]string, bool) {
	if !strings.HasPrefix(text, prefix) {
		return nil, false
	}
	rest := text[len(prefix):]
	if rest == "" {
		return nil, false
	}
	if r, _ := utf8.DecodeRuneInString(rest); unicode.IsSpace(r) {
		return nil, false
	}

	matches := tokenRe.FindAllString(rest, -1)
	if len(matches) == 0 {
		return nil, false
	}

	args := make([]string, 0, len(matches))
	for _, m := range matches {
		if isQuoted(m) {
			m = quoteStripper.Replace(m)
		}
		args = append(args, m)
	}
	return args, true
}

func isQuoted(tok string) bool {
	if len(tok) < 2 {
		return false
	}
	first, last := tok[0], tok[len(tok)-1]
	return (first == '\'' || first == '"') && first == last
}
