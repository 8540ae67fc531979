package metadata

import (
	"strings"

	"github.com/kanak8278/IBC-RAG/pkg/types"
)

var (
	statuteTitle  = Chain{rule("title", `(?m)^\s*((?:THE\s+)?[A-Z][A-Z ,()&]*?(?:ACT|CODE),?\s*\d{4})\s*$`)}
	statuteNumber = Chain{rule("act_number", `(ACT\s+NO\.\s+\d+\s+OF\s+\d{4})`)}
	statuteDate   = Chain{rule("enactment_date", `(?m)^\s*\[(\d{1,2}(?:st|nd|rd|th)?\s+\w+,?\s+\d{4})\.?\]`)}
	statuteBody   = Chain{rule("enacted_by", `(?i)enacted\s+by\s+(Parliament)`)}
)

// Statute extracts metadata from the header of an act or code.
func Statute(text string) types.DocumentMetadata {
	return types.DocumentMetadata{
		Family:         types.FamilyStatute,
		Authority:      statuteBody.Value(text),
		DocumentNumber: strings.Join(strings.Fields(statuteNumber.Value(text)), " "),
		Date:           statuteDate.Value(text),
		Subject:        strings.TrimSpace(statuteTitle.Value(text)),
	}
}

// Extract dispatches to the extractor of the given family.
func Extract(f types.DocumentFamily, text string) (types.DocumentMetadata, error) {
	switch f {
	case types.FamilyCircular:
		return Circular(text), nil
	case types.FamilyNotification:
		return Notification(text), nil
	case types.FamilyStatute:
		return Statute(text), nil
	default:
		return types.DocumentMetadata{}, types.ErrUnknownFamily
	}
}
