package propsync

import "strings"

var listSeparators = strings.NewReplacer(",", " ", ";", " ")

// NormalizeList turns free-text list input into its tokens. Commas and
// semicolons count as whitespace. Blank input yields an empty, non-nil slice.
func NormalizeList(s string) []string {
	tokens := strings.Fields(listSeparators.Replace(s))
	if len(tokens) == 0 {
		return []string{}
	}
	return tokens
}

// Simplify trims s and collapses internal whitespace runs to a single space.
func Simplify(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func lowerEnum(s string) string {
	return strings.ToLower(Simplify(s))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
