package theme

import (
	"os"
	"strings"
)

// Glyphs drawn by the assistant. InitSymbols swaps them for ASCII when the
// terminal cannot show Unicode.
var (
	SymbolSuccess string
	SymbolError   string
	SymbolWarning string
	SymbolBullet  string
	SymbolPrompt  string
)

type glyphSet struct {
	success, failure, warning, bullet, prompt string
}

var (
	unicodeGlyphs = glyphSet{"✓", "✗", "⚠", "•", "❯"}
	asciiGlyphs   = glyphSet{"[OK]", "[ERR]", "[!]", "*", ">"}
)

// ASCIIOnly reports whether glyphs must be plain ASCII: either
// SHELLMATE_ASCII_SYMBOLS is set, or the effective locale (LC_ALL, then
// LC_CTYPE, then LANG) is set to something other than UTF-8.
func ASCIIOnly() bool {
	if v := os.Getenv("SHELLMATE_ASCII_SYMBOLS"); v == "1" || strings.EqualFold(v, "true") {
		return true
	}
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		v := strings.ToLower(os.Getenv(key))
		if v == "" {
			continue
		}
		return !strings.Contains(v, "utf-8") && !strings.Contains(v, "utf8")
	}
	return false
}

// InitSymbols picks the glyph set for the current environment. It runs at
// package init; tests call it again after changing the environment.
func InitSymbols() {
	g := unicodeGlyphs
	if ASCIIOnly() {
		g = asciiGlyphs
	}
	SymbolSuccess = g.success
	SymbolError = g.failure
	SymbolWarning = g.warning
	SymbolBullet = g.bullet
	SymbolPrompt = g.prompt
}

func init() {
	InitSymbols()
}
