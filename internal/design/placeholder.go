package design

import (
	"regexp"
	"strings"
)

var tokenRe = regexp.MustCompile(`\{\{(.+?)\}\}`)

// Tokens returns the trimmed keys of every {{KEY}} token in text.
func Tokens(text string) []string {
	matches := tokenRe.FindAllStringSubmatch(text, -1)
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		keys = append(keys, strings.TrimSpace(m[1]))
	}
	return keys
}

// Substitution is the outcome of merging a record into one text.
type Substitution struct {
	Text       string
	Resolved   int
	Unresolved []string
}

// Complete reports whether every token found a value.
func (s Substitution) Complete() bool { return len(s.Unresolved) == 0 }

// Substitute replaces each {{KEY}} token whose key resolves to a non-empty
// record value. Unresolved tokens stay in the text literally.
func Substitute(text string, rec Record) Substitution {
	var sub Substitution
	sub.Text = tokenRe.ReplaceAllStringFunc(text, func(tok string) string {
		key := strings.TrimSpace(tok[2 : len(tok)-2])
		v, ok := rec.Lookup(key)
		if !ok || v == "" {
			sub.Unresolved = append(sub.Unresolved, key)
			return tok
		}
		sub.Resolved++
		return v
	})
	return sub
}
