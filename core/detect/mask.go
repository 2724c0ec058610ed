package detect

import "strings"

const (
	// maskThreshold separates "long enough to keep identifying edges" from
	// "short enough that any partial reveal narrows the search space".
	maskThreshold = 12
	maskWidth     = 8
)

// SmartMask masks a detected value. Values longer than the threshold keep
// their first and last 4 characters around a fixed-width mask, which leaves
// enough of long tokens for log correlation. Values at or below the threshold
// are replaced entirely by the fixed-width mask, so the output carries no
// length signal for short secrets.
func SmartMask(value string) string {
	if len(value) > maskThreshold {
		return value[:4] + strings.Repeat("*", maskWidth) + value[len(value)-4:]
	}
	return strings.Repeat("*", maskWidth)
}
