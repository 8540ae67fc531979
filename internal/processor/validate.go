package processor

import "regexp"

var notificationChecks = []struct {
	re      *regexp.Regexp
	message string
}{
	{regexp.MustCompile(`G\.S\.R\..*?\([A-Z]\)`), "missing G.S.R. number"},
	{regexp.MustCompile(`(?i)NOTIFICATION`), "missing NOTIFICATION header"},
	{regexp.MustCompile(`(?i)MINISTRY OF`), "missing Ministry reference"},
	{regexp.MustCompile(`(?i)In exercise of`), "missing powers exercise reference"},
}

// ValidateNotification reports the structural elements a gazette
// notification is expected to carry but text lacks. An empty result means
// the text looks like a complete notification.
func ValidateNotification(text string) []string {
	var warnings []string
	for _, c := range notificationChecks {
		if !c.re.MatchString(text) {
			warnings = append(warnings, c.message)
		}
	}
	return warnings
}
