package token

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// pattern pairs a token kind with its anchored recognizer. Patterns
// are tried in slice order at each offset and the first match wins,
// so structural operators shadow bracketed blocks, which shadow
// literals, which shadow identifiers.
type pattern struct {
	kind Kind
	re   *regexp.Regexp
	// strip removes delimiters from the matched text to produce the
	// token value. Nil means the raw match is the value.
	strip func(string) string
}

func stripEnds(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

var patterns = []pattern{
	{Hier, regexp.MustCompile(`^:\^:`), nil},
	{Root, regexp.MustCompile(`^::`), nil},
	{Relation, regexp.MustCompile(`^//`), nil},
	{Trigger, regexp.MustCompile(`^->`), nil},
	{Param, regexp.MustCompile(`^%`), nil},
	{Action, regexp.MustCompile(`^\{[^{}]*\}`), stripEnds},
	{Variable, regexp.MustCompile(`^\[[^\[\]]*\]`), stripEnds},
	{Option, regexp.MustCompile(`^\([^()]*\)`), stripEnds},
	{String, regexp.MustCompile(`^"[^"]*"`), stripEnds},
	{Number, regexp.MustCompile(`^-?\d+(?:\.\d+)?`), nil},
	{Ident, regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*`), nil},
}

var whitespace = regexp.MustCompile(`^[ \t]+`)

// Tokenize scans one statement line left to right and returns its
// tokens. Whitespace advances position and column counters but emits
// no token; characters matching no pattern are skipped silently.
// Tokenize is a pure function of its input and never fails.
func Tokenize(line string) []Token {
	return TokenizeAt(line, 1)
}

// TokenizeAt tokenizes a line that sits at the given 1-indexed line
// number of its block, so diagnostics can point at the source.
func TokenizeAt(line string, lineNo int) []Token {
	var toks []Token
	offset := 0
	col := 0

	for offset < len(line) {
		rest := line[offset:]

		if m := whitespace.FindString(rest); m != "" {
			offset += len(m)
			col += len(m)
			continue
		}

		matched := false
		for _, p := range patterns {
			m := p.re.FindString(rest)
			if m == "" {
				continue
			}
			value := m
			if p.strip != nil {
				value = p.strip(m)
			}
			toks = append(toks, Token{
				Kind:   p.kind,
				Value:  value,
				Line:   lineNo,
				Column: col,
				Start:  offset,
				End:    offset + len(m),
			})
			offset += len(m)
			col += utf8.RuneCountInString(m)
			matched = true
			break
		}
		if matched {
			continue
		}

		// Unrecognized rune: skip silently, never fatal.
		_, w := utf8.DecodeRuneInString(rest)
		offset += w
		col++
	}

	toks = append(toks, Token{
		Kind:   EOF,
		Line:   lineNo,
		Column: col,
		Start:  offset,
		End:    offset,
	})
	return toks
}

// Indent returns the nesting depth encoded by a line's leading
// whitespace. Two spaces (or one tab) count as one depth level.
func Indent(line string) int {
	spaces := 0
	for _, r := range line {
		switch r {
		case ' ':
			spaces++
		case '\t':
			spaces += 2
		default:
			return spaces / 2
		}
	}
	return spaces / 2
}

// IsStatement reports whether a line opens with a statement operator
// after leading whitespace.
func IsStatement(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, "::") || strings.HasPrefix(trimmed, ":^:")
}
