package match

import (
	"strings"
	"unicode"
)

// NormalizeIdent normalizes an identifier for fuzzy matching: CamelCase is
// split, everything is lower-cased and separators are dropped.
func NormalizeIdent(s string) string {
	joined := strings.ToLower(strings.Join(tokenizeCamelCase(s), ""))

	return stripSeparators(joined)
}

// TokenizeIdent splits an identifier into lowercase tokens.
func TokenizeIdent(s string) []string {
	tokens := tokenizeCamelCase(s)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}

	return tokens
}

// PascalCase turns a native enumerator or constant spelling into a Go
// identifier suffix: "LOW" -> "Low", "IN_PROGRESS" -> "InProgress",
// "inProgress" -> "InProgress". Names that already mix cases keep their
// acronyms ("HTTPError" stays as is).
func PascalCase(s string) string {
	shouting := strings.IndexFunc(s, unicode.IsLower) < 0

	var b strings.Builder

	for _, tok := range tokenizeCamelCase(s) {
		if shouting {
			tok = strings.ToLower(tok)
		}

		b.WriteString(Exported(tok))
	}

	return b.String()
}

// Exported upper-cases the first letter of s.
func Exported(s string) string {
	if s == "" {
		return s
	}

	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])

	return string(r)
}

// Unexported lower-cases the first letter of s.
func Unexported(s string) string {
	if s == "" {
		return s
	}

	r := []rune(s)
	r[0] = unicode.ToLower(r[0])

	return string(r)
}

// tokenizeCamelCase splits a CamelCase or camelCase string into tokens.
// Examples:
//   - "TaskStatus" -> ["Task", "Status"]
//   - "getHTTPResponse" -> ["get", "HTTP", "Response"]
//   - "IN_PROGRESS" -> ["IN", "PROGRESS"]
func tokenizeCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var (
		tokens  []string
		current strings.Builder
	)

	runes := []rune(s)
	for i := range runes {
		r := runes[i]

		if isSeparator(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

			continue
		}

		if i > 0 && shouldStartNewToken(runes, i) && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == ':'
}

func shouldStartNewToken(runes []rune, i int) bool {
	r := runes[i]
	prev := runes[i-1]

	if !unicode.IsUpper(r) {
		return false
	}

	// "orderID": split before 'I'.
	if !unicode.IsUpper(prev) && !isSeparator(prev) {
		return true
	}

	// "XMLParser": split before 'P'.
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

func stripSeparators(s string) string {
	var result strings.Builder

	result.Grow(len(s))

	for _, r := range s {
		if !isSeparator(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}
