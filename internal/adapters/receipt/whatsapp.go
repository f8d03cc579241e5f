package receipt

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"last-mile-service/internal/domain"
)

// WhatsAppSharer builds wa.me deep links the operator taps to send the
// receipt summary. Producing the link is the whole share step; actual
// sending happens in the messaging app.
type WhatsAppSharer struct {
	CountryCode string
}

func NewWhatsAppSharer(countryCode string) *WhatsAppSharer {
	if countryCode == "" {
		countryCode = "52"
	}
	return &WhatsAppSharer{CountryCode: countryCode}
}

func (s *WhatsAppSharer) Share(ctx context.Context, phone string, rec domain.Receipt) (string, error) {
	digits := keepDigits(phone)
	if digits == "" {
		return "", fmt.Errorf("whatsapp share: no phone number for %q", rec.ClientName)
	}
	if len(digits) == 10 {
		digits = s.CountryCode + digits
	}

	priceNote := ""
	if rec.PriceEstimated {
		priceNote = " (precio estimado)"
	}

	msg := fmt.Sprintf(
		"Hola *%s*! Entrega realizada: %s, %.2f kg x $%.2f = *$%.2f*%s. Folio %03d. ¡Gracias!",
		rec.ClientName, rec.Product, rec.Kg, rec.UnitPrice, rec.Total, priceNote, rec.FolioNote,
	)

	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(msg), nil
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
