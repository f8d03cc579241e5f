package ports

import (
	"context"

	"last-mile-service/internal/domain"
)

// Contract for producing the human-readable receipt artifact.
// Render failures degrade the completion flow (no artifact to share)
// but never block it.
type ReceiptRenderer interface {
	// Render writes the receipt document and returns its path.
	Render(ctx context.Context, receipt domain.Receipt) (string, error)
}

// Contract for delivering a receipt to the client over an external
// channel. Best-effort: failures are logged, never fatal.
type ReceiptSharer interface {
	// Share returns a link or handle the operator can use to send the
	// receipt (e.g. a wa.me deep link).
	Share(ctx context.Context, phone string, receipt domain.Receipt) (string, error)
}
