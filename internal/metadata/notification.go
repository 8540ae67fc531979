package metadata

import (
	"regexp"
	"strings"

	"github.com/kanak8278/IBC-RAG/pkg/types"
)

// NotificationNumberRules find the G.S.R. number.
var NotificationNumberRules = Chain{
	rule("gsr_with_series", `G\.S\.R\.\s*(\d+)\s*\([A-Z]\)`),
	rule("gsr_spaced", `G\.\s*S\.\s*R\.\s*(\d+)`),
}

// NotificationDateRules find the date the notification was issued.
var NotificationDateRules = Chain{
	rule("new_delhi_date", `New Delhi,\s+the\s+(\d{1,2}(?:st|nd|rd|th)?\s+\w+,?\s+\d{4})`),
	rule("new_delhi_line", `New Delhi,\s+the\s+([^\n]+)`),
}

// MinistryRules find the issuing ministry.
var MinistryRules = Chain{
	rule("ministry_heading", `(MINISTRY OF [A-Z &]+?)\s*(?:NOTIFICATION|\n)`),
	rule("ministry_line", `(MINISTRY OF[^\n]+)`),
}

var (
	registryNumber  = Chain{rule("registry", `REGD\.\s*NO\.\s*D\.\s*L\.-(\d+/\d+)`)}
	gazetteNumber   = Chain{rule("gazette", `No\.\s+(\d+)\]`)}
	publicationDate = Chain{rule("publication", `NEW DELHI,\s+([^\n]*?\d{4})`)}
	indianDate      = Chain{rule("saka", `\d{4}\s*/\s*([A-Z]+\s+\d{1,2},\s+\d{4})`)}
	shortTitle      = Chain{rule("short_title", `(?i)(?:rules|regulations)\s+may\s+be\s+called\s+the\s+(.+?)\s*\.(?:\s|$)`)}
	amendmentRef    = regexp.MustCompile(`to amend the ([^,]+),\s*(\d{4})`)
)

// Notification extracts metadata from a gazette notification. The text
// should still carry its line structure.
func Notification(text string) types.DocumentMetadata {
	ministry := strings.TrimSpace(MinistryRules.Value(text))

	md := types.DocumentMetadata{
		Family:          types.FamilyNotification,
		Authority:       ministry,
		Ministry:        ministry,
		DocumentNumber:  NotificationNumberRules.Value(text),
		Date:            strings.TrimSpace(NotificationDateRules.Value(text)),
		Subject:         shortTitle.Value(text),
		RegistryNumber:  registryNumber.Value(text),
		GazetteNumber:   gazetteNumber.Value(text),
		PublicationDate: strings.TrimSpace(publicationDate.Value(text)),
		IndianDate:      indianDate.Value(text),
	}

	if m := amendmentRef.FindStringSubmatch(text); m != nil {
		md.Amendment = &types.Amendment{
			AmendedInstrument: strings.TrimSpace(m[1]),
			Year:              m[2],
		}
	}
	return md
}
