package slice

import "strings"

// ExcludeWhitespaces removes blank entries from given slice
func ExcludeWhitespaces(arr []string) []string {
	result := make([]string, 0, len(arr))
	for _, h := range arr {
		if strings.TrimSpace(h) == "" {
			continue
		}
		result = append(result, h)
	}
	return result
}

// ReplaceInEach returns a copy of arr with every occurrence of old replaced
// by new in each entry.
func ReplaceInEach(arr []string, old, new string) []string {
	result := make([]string, len(arr))
	for i, s := range arr {
		result[i] = strings.ReplaceAll(s, old, new)
	}
	return result
}
