package validators

import "strings"

// Limits applied to free-text customer fields before they reach the log.
const (
	MaxNameLength   = 80
	MaxRoomLength   = 16
	MaxHostelLength = 80
)

// SanitizeString trims input, folds runs of whitespace and caps it at maxLen bytes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.Join(strings.Fields(input), " ")
	if maxLen > 0 && len(trimmed) > maxLen {
		return strings.TrimSpace(trimmed[:maxLen])
	}
	return trimmed
}
