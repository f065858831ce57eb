package util

import "strings"

// SanitizeModelJSON repairs the usual damage in JSON-looking text returned by
// the extraction model: literal newlines inside string values and backslash
// runs that do not form a recognized JSON escape. The result is best-effort;
// parsing may still fail and callers must treat that as a rejection.
//
// The transform is NOT idempotent: running it again on its own output will
// double already-doubled runs.
func SanitizeModelJSON(s string) string {
	if s == "" {
		return s
	}
	s = strings.NewReplacer("\r", "", "\n", "").Replace(s)
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] == '\\' {
			j++
		}
		// A run followed by a valid escape char is kept; anything else
		// (including a run at end of input) gets every backslash doubled.
		if j < len(s) && isJSONEscapeChar(s[j]) {
			b.WriteString(s[i:j])
		} else {
			b.WriteString(strings.Repeat(`\`, (j-i)*2))
		}
		i = j
	}
	return b.String()
}

func isJSONEscapeChar(c byte) bool {
	switch c {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
		return true
	}
	return false
}
