package filter

import (
	"strings"

	"github.com/gobwas/glob"
)

// maxClassRunes bounds how far a bracket class with several members is
// expanded into an explicit rune list.
const maxClassRunes = 4096

// translate rewrites a shell wildcard pattern into gobwas syntax so that
// only '*', '?' and closed '[...]' classes are special. Everything else,
// braces and backslashes included, matches itself; so does a '[' without a
// closing ']'.
// ok is false when the pattern can never match anything.
func translate(pat string) (string, bool) {
	rs := []rune(pat)
	var b strings.Builder
	for i := 0; i < len(rs); {
		switch rs[i] {
		case '*':
			b.WriteByte('*')
			for i < len(rs) && rs[i] == '*' {
				i++
			}
			continue
		case '?':
			b.WriteByte('?')
		case '[':
			end := classEnd(rs, i)
			if end < 0 {
				b.WriteString(glob.QuoteMeta("["))
				break
			}
			class, ok := translateClass(rs[i+1 : end])
			if !ok {
				return "", false
			}
			b.WriteString(class)
			i = end + 1
			continue
		default:
			b.WriteString(glob.QuoteMeta(string(rs[i])))
		}
		i++
	}
	return b.String(), true
}

// classEnd returns the index of the ']' closing the class opened at start,
// or -1. A ']' directly after the opening '[' or "[!" is a member.
func classEnd(rs []rune, start int) int {
	j := start + 1
	if j < len(rs) && rs[j] == '!' {
		j++
	}
	if j < len(rs) && rs[j] == ']' {
		j++
	}
	for j < len(rs) && rs[j] != ']' {
		j++
	}
	if j >= len(rs) {
		return -1
	}
	return j
}

type runeSpan struct {
	lo, hi rune
}

func (s runeSpan) size() int {
	return int(s.hi-s.lo) + 1
}

// translateClass converts the body of a bracket class. Reversed ranges are
// dropped; an empty class never matches and an empty negated class matches
// any single rune.
func translateClass(body []rune) (string, bool) {
	negate := len(body) > 0 && body[0] == '!'
	if negate {
		body = body[1:]
	}

	var spans []runeSpan
	total := 0
	for k := 0; k < len(body); k++ {
		lo, hi := body[k], body[k]
		if k+2 < len(body) && body[k+1] == '-' {
			hi = body[k+2]
			k += 2
			if lo > hi {
				continue
			}
		}
		spans = append(spans, runeSpan{lo, hi})
		total += runeSpan{lo, hi}.size()
	}

	if len(spans) == 0 {
		if negate {
			return "?", true
		}
		return "", false
	}

	// gobwas reads a leading '!' as negation, so a positive class must not
	// start with one.
	single := len(spans) == 1 && spans[0].lo != spans[0].hi
	if single && (negate || spans[0].lo != '!') {
		return rangeClass(spans[0], negate), true
	}
	if total == 1 && !negate {
		return glob.QuoteMeta(string(spans[0].lo)), true
	}
	if total <= maxClassRunes {
		return listClass(spans, negate), true
	}
	if negate {
		return "", false
	}

	alts := make([]string, 0, len(spans))
	for _, s := range spans {
		switch {
		case s.lo == s.hi:
			alts = append(alts, quoteTerm(s.lo))
		case s.lo == '!':
			alts = append(alts, quoteTerm('!'), rangeClass(runeSpan{'!' + 1, s.hi}, false))
		default:
			alts = append(alts, rangeClass(s, false))
		}
	}
	return "{" + strings.Join(alts, ",") + "}", true
}

func rangeClass(s runeSpan, negate bool) string {
	var b strings.Builder
	b.WriteByte('[')
	if negate {
		b.WriteByte('!')
	}
	b.WriteRune(s.lo)
	b.WriteByte('-')
	b.WriteRune(s.hi)
	b.WriteByte(']')
	return b.String()
}

// listClass spells every member out. Members are escaped, except '-', which
// goes last unescaped so gobwas never reads "\-" as the start of a range.
func listClass(spans []runeSpan, negate bool) string {
	var b strings.Builder
	b.WriteByte('[')
	if negate {
		b.WriteByte('!')
	}
	dash := false
	for _, s := range spans {
		for r := s.lo; r <= s.hi; r++ {
			if r == '-' {
				dash = true
				continue
			}
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	if dash {
		b.WriteByte('-')
	}
	b.WriteByte(']')
	return b.String()
}

// quoteTerm escapes r for use inside a {...} alternative.
func quoteTerm(r rune) string {
	if r == ',' {
		return `\,`
	}
	return glob.QuoteMeta(string(r))
}
