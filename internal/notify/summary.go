// Package notify builds the text that fills WhatsApp template placeholders.
package notify

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultSummaryLimit keeps the product list under WhatsApp's template parameter ceiling.
const DefaultSummaryLimit = 60

// SummarizeProducts joins line-item titles into a string of at most limit
// characters. Long lists collapse to "<first> & N more"; an overlong first
// title is cut and marked with an ellipsis.
func SummarizeProducts(titles []string, limit int) string {
	if len(titles) == 0 {
		return ""
	}
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}

	full := strings.Join(titles, ", ")
	if utf8.RuneCountInString(full) <= limit {
		return full
	}

	first := titles[0]
	others := len(titles) - 1
	if others == 0 {
		return truncate(first, limit-3) + "..."
	}

	summary := first + " & " + strconv.Itoa(others) + " more"
	if utf8.RuneCountInString(summary) <= limit {
		return summary
	}

	return truncate(first, limit-10) + "... & more"
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
