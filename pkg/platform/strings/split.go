// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// SplitList splits s on sep, trims each element, and drops empty and
// repeated elements. Order is preserved. An empty result is nil.
//
// Example:
//
//	SplitList(" kafka-1:9092, kafka-2:9092,,kafka-1:9092 ", ",")
//	// Returns: []string{"kafka-1:9092", "kafka-2:9092"}
func SplitList(s, sep string) []string {
	var result []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		result = append(result, part)
	}
	return result
}
