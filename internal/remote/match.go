package remote

import (
	"regexp"
	"strings"
)

// HasWildcard reports whether a path pattern needs expansion.
func HasWildcard(pattern string) bool {
	return strings.Contains(pattern, "*")
}

// Match reports whether name matches a shell-style pattern. Unlike
// path.Match, '*' also matches '/', so "docs/*.md" matches
// "docs/guides/a.md". Matching is case-sensitive.
//
//	*        any run of characters
//	?        any single character
//	[seq]    any character in seq
//	[!seq]   any character not in seq
func Match(pattern, name string) bool {
	return compilePattern(pattern).MatchString(name)
}

// compilePattern translates a shell-style pattern into an anchored regexp.
func compilePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?s)^`)

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch c := runes[i]; c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			end := classEnd(runes, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(translateClass(runes[i+1 : end]))
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteString(`$`)
	return regexp.MustCompile(b.String())
}

// classEnd returns the index of the ']' closing the class opened at
// start, or -1. A ']' right after '[' or '[!' is a literal member.
func classEnd(pattern []rune, start int) int {
	j := start + 1
	if j < len(pattern) && pattern[j] == '!' {
		j++
	}
	if j < len(pattern) && pattern[j] == ']' {
		j++
	}
	for ; j < len(pattern); j++ {
		if pattern[j] == ']' {
			return j
		}
	}
	return -1
}

func translateClass(body []rune) string {
	negate := false
	if len(body) > 0 && body[0] == '!' {
		negate = true
		body = body[1:]
	}
	var b strings.Builder
	b.WriteByte('[')
	if negate {
		b.WriteByte('^')
	}
	for _, c := range body {
		switch c {
		case '\\', '[', ']', '^':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	b.WriteByte(']')
	return b.String()
}
