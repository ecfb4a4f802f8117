package bda

import (
	"sort"
	"strconv"
)

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// paginate returns the [start,end) window for token and the next token.
func paginate(total, size int, token string) ([2]int, string) {
	start := 0
	if token != "" {
		start, _ = strconv.Atoi(token)
	}
	if size <= 0 || start+size >= total {
		return [2]int{start, total}, ""
	}
	return [2]int{start, start + size}, strconv.Itoa(start + size)
}
