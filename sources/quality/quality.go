// Package quality ranks candidate streams by their resolution label.
package quality

import (
	"strconv"
	"strings"
)

// Height parses the numeric resolution out of a quality indicator such as
// "1080p", "720p60" or "480x360". Unparseable labels rank as 0.
func Height(label string) int {
	label = strings.TrimSpace(strings.ToLower(label))
	if label == "" {
		return 0
	}
	if i := strings.IndexByte(label, 'x'); i >= 0 {
		label = label[i+1:]
	}
	digits := label
	for i, r := range label {
		if r < '0' || r > '9' {
			digits = label[:i]
			break
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// BestIndex returns the index of the highest-resolution label, resolving
// ties by first-seen order. Returns -1 for an empty slice.
func BestIndex(labels []string) int {
	best, bestHeight := -1, -1
	for i, label := range labels {
		if h := Height(label); h > bestHeight {
			best, bestHeight = i, h
		}
	}
	return best
}
