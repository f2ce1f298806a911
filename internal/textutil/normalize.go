package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Mode selects which tokens Normalize keeps.
type Mode int

const (
	// ModeFilename keeps every token; used when comparing against file stems.
	ModeFilename Mode = iota
	// ModeSignificant keeps only tokens longer than two characters.
	ModeSignificant
)

// separators become spaces before tokenizing. The underscore is included
// because SanitizeFileName introduces it in place of unsafe characters.
var separators = strings.NewReplacer(
	"¿", " ", "?", " ", "¡", " ", "!", " ",
	":", " ", ";", " ", ",", " ", ".", " ",
	"|", " ", "/", " ", "\\", " ", "_", " ",
)

// StripAccents decomposes text and removes combining marks ("Acción" -> "Accion").
func StripAccents(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

// TruncateAtParen drops everything from the first "(" on.
func TruncateAtParen(text string) string {
	if idx := strings.IndexRune(text, '('); idx >= 0 {
		return text[:idx]
	}
	return text
}

// Normalize converts text into comparable tokens. wordCount <= 0 keeps all
// tokens the mode allows.
func Normalize(text string, mode Mode, wordCount int) []string {
	text = strings.ToLower(TruncateAtParen(text))
	text = StripAccents(text)
	text = separators.Replace(text)

	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if mode == ModeSignificant && len([]rune(field)) <= 2 {
			continue
		}
		tokens = append(tokens, field)
		if wordCount > 0 && len(tokens) == wordCount {
			break
		}
	}
	return tokens
}

// NormalizeStem is Normalize joined back with single spaces. Feeding its
// output through NormalizeStem again with the same arguments is a no-op.
func NormalizeStem(text string, mode Mode, wordCount int) string {
	return strings.Join(Normalize(text, mode, wordCount), " ")
}

// fuseRemover deletes everything that does not survive into a fused name.
var fuseRemover = strings.NewReplacer(
	"¿", "", "?", "", "¡", "", "!", "",
	":", "", ";", "", ",", "", ".", "",
	"|", "", "/", "", "\\", "",
	"_", "", "-", "",
)

// Fuse collapses text into a single lowercase string without punctuation,
// whitespace, underscores, or dashes.
func Fuse(text string) string {
	text = strings.ToLower(TruncateAtParen(text))
	text = StripAccents(text)
	text = fuseRemover.Replace(text)
	return strings.Join(strings.Fields(text), "")
}

// LongTokens returns the filename-mode tokens of text longer than minLen runes.
func LongTokens(text string, minLen int) []string {
	all := Normalize(text, ModeFilename, 0)
	out := make([]string, 0, len(all))
	for _, token := range all {
		if len([]rune(token)) > minLen {
			out = append(out, token)
		}
	}
	return out
}
