package task

import "strings"

// ValidateTitle rejects empty or whitespace-only titles. A valid title is
// returned exactly as given.
func ValidateTitle(title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}
