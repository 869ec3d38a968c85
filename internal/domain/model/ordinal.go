package model

import (
	"regexp"
	"strconv"
)

var ordinalPattern = regexp.MustCompile(`(?i)\bnumber\s+(\d+)\b`)

// ParseOrdinal extracts the item index from a marker's text, e.g.
// "Feed post number 7". The last "number N" occurrence wins. It reports false
// when the text does not match or N is not a positive decimal int.
func ParseOrdinal(text string) (ItemIndex, bool) {
	matches := ordinalPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return ItemIndex(n), true
}
