package utils

import "strings"

// BatchStrings splits items into consecutive batches of at most batchSize. A non-positive
// size yields a single batch.
func BatchStrings(items []string, batchSize int) [][]string {
	if batchSize <= 0 {
		batchSize = len(items)
	}
	if len(items) == 0 {
		return [][]string{}
	}

	var batches [][]string
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

// LowerSet builds a lookup set of lowercased, trimmed, non-empty strings.
func LowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}

// FirstNonBlank returns the first value that is non-empty after trimming, trimmed.
func FirstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
