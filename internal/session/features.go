package session

import "strings"

// featureTokens splits a features string on whitespace and commas,
// discarding empty tokens. This split rule is the observable contract
// for feature_index; it must not change without a migration (§9).
// filter_messages' feature_contains does not tokenize: it is a plain
// substring match on the whole features string.
func featureTokens(features string) []string {
	tokens := strings.FieldsFunc(features, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
