package scan

import (
	"strings"
	"unicode"
)

// CommentGrammar describes how a language family introduces comments, so
// marker metrics only count markers that actually sit inside a comment.
// This keeps marker-like substrings in string literals and embedded
// foreign-language fixtures out of the count.
type CommentGrammar struct {
	// LinePrefixes introduce a comment anywhere on the line (e.g. "//").
	LinePrefixes []string

	// BlockOpen opens a block comment (e.g. "/*").
	BlockOpen string

	// Continuation is the leading prefix of a block-comment continuation
	// line (e.g. "*").
	Continuation string

	// HashStyle anchors to a '#' at line start or preceded by whitespace,
	// instead of the prefix rules above.
	HashStyle bool
}

var (
	slashGrammar = &CommentGrammar{
		LinePrefixes: []string{"//"},
		BlockOpen:    "/*",
		Continuation: "*",
	}
	hashGrammar = &CommentGrammar{HashStyle: true}
)

// grammars maps file extension to comment grammar. New languages register a
// grammar here rather than editing the matching logic.
var grammars = map[string]*CommentGrammar{
	".rs":    slashGrammar,
	".go":    slashGrammar,
	".c":     slashGrammar,
	".h":     slashGrammar,
	".cpp":   slashGrammar,
	".js":    slashGrammar,
	".ts":    slashGrammar,
	".java":  slashGrammar,
	".pl":    hashGrammar,
	".pm":    hashGrammar,
	".t":     hashGrammar,
	".py":    hashGrammar,
	".sh":    hashGrammar,
	".bash":  hashGrammar,
	".rb":    hashGrammar,
	".yaml":  hashGrammar,
	".yml":   hashGrammar,
	".toml":  hashGrammar,
	".mk":    hashGrammar,
	".cmake": hashGrammar,
}

// GrammarForExtension returns the comment grammar for a file extension, or
// nil when the language is unknown (matches are then counted unanchored).
func GrammarForExtension(ext string) *CommentGrammar {
	return grammars[strings.ToLower(ext)]
}

// RegisterGrammar adds or replaces the grammar for an extension.
func RegisterGrammar(ext string, g *CommentGrammar) {
	grammars[strings.ToLower(ext)] = g
}

// Anchored reports whether a match starting at byte offset col on line sits
// inside a comment for this grammar.
func (g *CommentGrammar) Anchored(line string, col int) bool {
	if g.HashStyle {
		return hashAnchored(line, col)
	}

	prefix := line[:col]
	for _, p := range g.LinePrefixes {
		if strings.Contains(prefix, p) {
			return true
		}
	}
	if g.BlockOpen != "" && strings.Contains(prefix, g.BlockOpen) {
		return true
	}
	if g.Continuation != "" {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if strings.HasPrefix(trimmed, g.Continuation) {
			return true
		}
	}
	return false
}

// hashAnchored accepts a '#' before col that starts the line or follows
// whitespace. A '#' glued to other text (interpolation, shebang-adjacent
// noise, hex literals) does not open a comment.
func hashAnchored(line string, col int) bool {
	prefix := line[:col]
	for i := 0; i < len(prefix); i++ {
		if prefix[i] != '#' {
			continue
		}
		if i == 0 {
			return true
		}
		if prev := prefix[i-1]; prev == ' ' || prev == '\t' {
			return true
		}
	}
	return false
}
