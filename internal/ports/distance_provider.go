package ports

import (
	"context"

	"last-mile-service/internal/domain"
)

// Square distance/duration matrix over an ordered location list.
// Distances are meters, durations seconds; row i column j is the leg
// from locations[i] to locations[j].
type Matrix struct {
	Distances [][]int
	Durations [][]int
}

// Contract for retrieving a travel matrix between coordinates.
type DistanceMatrixProvider interface {
	// FullMatrix returns the square matrix for all locations.
	FullMatrix(ctx context.Context, locations []domain.Coordinates) (Matrix, error)
}
