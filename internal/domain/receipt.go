package domain

import (
	"strings"
	"time"
)

// Data rendered onto a delivery receipt (remision note).
type Receipt struct {
	FolioNote   int
	Date        time.Time
	ClientName  string
	Product     string
	Kg          float64
	UnitPrice   float64
	Total       float64
	// True when the unit price fell back to the configured default
	// instead of a negotiated price. Rendered as an estimate.
	PriceEstimated bool
}

// SanitizeFileName derives a deterministic, filesystem-safe name
// fragment from a client name.
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "cliente"
	}
	return b.String()
}
