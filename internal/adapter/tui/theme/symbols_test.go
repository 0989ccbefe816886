package theme

import "testing"

// clearLocale makes the test independent of the caller's locale.
func clearLocale(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SHELLMATE_ASCII_SYMBOLS", "LC_ALL", "LC_CTYPE", "LANG"} {
		t.Setenv(key, "")
	}
	t.Cleanup(InitSymbols)
}

func TestASCIIOnly(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"no locale", nil, false},
		{"utf-8 lang", map[string]string{"LANG": "en_US.UTF-8"}, false},
		{"utf8 ctype", map[string]string{"LC_CTYPE": "de_DE.utf8"}, false},
		{"posix lang", map[string]string{"LANG": "C"}, true},
		{"lc_all wins", map[string]string{"LC_ALL": "C", "LANG": "en_US.UTF-8"}, true},
		{"lc_all utf-8 wins", map[string]string{"LC_ALL": "C.UTF-8", "LANG": "C"}, false},
		{"forced", map[string]string{"SHELLMATE_ASCII_SYMBOLS": "true", "LANG": "en_US.UTF-8"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearLocale(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := ASCIIOnly(); got != tt.want {
				t.Errorf("ASCIIOnly() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInitSymbols(t *testing.T) {
	clearLocale(t)
	t.Setenv("LANG", "en_US.UTF-8")
	InitSymbols()
	if SymbolSuccess != "✓" || SymbolPrompt != "❯" {
		t.Errorf("unicode glyphs = %q %q", SymbolSuccess, SymbolPrompt)
	}

	t.Setenv("SHELLMATE_ASCII_SYMBOLS", "1")
	InitSymbols()
	if SymbolError != "[ERR]" || SymbolBullet != "*" || SymbolWarning != "[!]" {
		t.Errorf("ascii glyphs = %q %q %q", SymbolError, SymbolBullet, SymbolWarning)
	}
}
