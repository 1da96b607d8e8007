package provider

// CleanToolName defends against a vendor returning a tool name
// corrupted with stray markup characters (observed in the wild as
// names like "disk_usage</tool>"). The name is truncated at the first
// rune that cannot appear in a registered tool name; callers log a
// warning when the name was altered. A cosmetic encoding glitch must
// not become a hard failure — if the cleaned name still misses the
// catalog, that is an ordinary unknown-tool result.
func CleanToolName(raw string) (string, bool) {
	for i, r := range raw {
		if !isToolNameRune(r) {
			return raw[:i], true
		}
	}
	return raw, false
}

func isToolNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	default:
		return false
	}
}
