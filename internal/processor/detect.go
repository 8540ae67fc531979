package processor

import (
	"regexp"

	"github.com/kanak8278/IBC-RAG/pkg/types"
)

var (
	notificationMarker = regexp.MustCompile(`G\.S\.R\.\s*\d+|(?i:gazette\s+of\s+india)`)
	statuteMarker      = regexp.MustCompile(`ACT\s+NO\.\s+\d+\s+OF\s+\d{4}|(?i:be\s+it\s+enacted\s+by\s+parliament)`)
	circularMarker     = regexp.MustCompile(`IBBI/[\w/-]+|(?i:\bcircular\b)`)
)

// Detect infers the document family from text markers. Gazette markers
// are checked first because notifications cite acts and circulars.
func Detect(text string) (types.DocumentFamily, error) {
	switch {
	case notificationMarker.MatchString(text):
		return types.FamilyNotification, nil
	case statuteMarker.MatchString(text):
		return types.FamilyStatute, nil
	case circularMarker.MatchString(text):
		return types.FamilyCircular, nil
	default:
		return "", types.ErrUnknownFamily
	}
}
