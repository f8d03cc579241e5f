package distance

import (
	"context"
	"fmt"

	"last-mile-service/internal/domain"
	"last-mile-service/internal/ports"
)

// MockMatrixProvider returns a fixed matrix, or a fixed error.
type MockMatrixProvider struct {
	Matrix ports.Matrix
	Err    error
}

func (p *MockMatrixProvider) FullMatrix(ctx context.Context, locations []domain.Coordinates) (ports.Matrix, error) {
	if p.Err != nil {
		return ports.Matrix{}, p.Err
	}
	if len(p.Matrix.Distances) != len(locations) {
		return ports.Matrix{}, fmt.Errorf(
			"mock matrix: %d locations, matrix side %d",
			len(locations), len(p.Matrix.Distances),
		)
	}
	return p.Matrix, nil
}
