// Package vulnmap implements the reverse-substitution deobfuscator:
// given a mapping table and a free-form text report from an untrusted
// analyzer, it restores every pseudonymized identifier to its
// original name so findings can be triaged locally.
package vulnmap

import (
	"sort"
	"strings"

	"solir/internal/obfuscate"
)

// isTokenChar reports whether r can appear inside an identifier token;
// a token is delimited by any non-[alnum, underscore] character or
// string start/end.
func isTokenChar(r byte) bool {
	return r == '_' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z')
}

// Deobfuscate rewrites every whole-token occurrence of an obfuscated
// name in text with its original, longest names first so that e.g.
// "contract_10" is matched before the prefix-colliding "contract_1".
// The operation is idempotent: running it again on already-
// deobfuscated text is a no-op, since the mapping's keys are
// pseudonyms that will no longer appear.
func Deobfuscate(mapping obfuscate.Mapping, text string) string {
	names := make([]string, 0, len(mapping.Entries))
	for name := range mapping.Entries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	var out strings.Builder
	out.Grow(len(text))

	i := 0
	for i < len(text) {
		matched := false
		for _, name := range names {
			if name == "" || !strings.HasPrefix(text[i:], name) {
				continue
			}
			if i > 0 && isTokenChar(text[i-1]) {
				continue
			}
			end := i + len(name)
			if end < len(text) && isTokenChar(text[end]) {
				continue
			}
			out.WriteString(mapping.Entries[name])
			i = end
			matched = true
			break
		}
		if !matched {
			out.WriteByte(text[i])
			i++
		}
	}
	return out.String()
}
