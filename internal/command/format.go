package command

import "strings"

// Format renders tokens as a single shell-safe line for previews. It is
// display-only; the executor never runs commands through a shell.
func Format(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = quote(tok)
	}
	return strings.Join(quoted, " ")
}

func quote(tok string) string {
	if tok == "" {
		return "''"
	}
	safe := true
	for _, r := range tok {
		if !isSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return tok
	}
	return "'" + strings.ReplaceAll(tok, "'", `'\''`) + "'"
}

func isSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=+,@%", r)
}
