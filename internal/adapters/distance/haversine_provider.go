package distance

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"

	"last-mile-service/internal/domain"
	"last-mile-service/internal/ports"
)

// Average speed assumed for duration estimates (~50 km/h in m/s).
const averageSpeedMPS = 13.89

// HaversineProvider computes the travel matrix from great-circle
// distances. It needs no network access and serves as the fallback
// when the live matrix API is unreachable or unconfigured; callers
// must flag routes built this way as estimates.
type HaversineProvider struct{}

func NewHaversineProvider() *HaversineProvider { return &HaversineProvider{} }

func (p *HaversineProvider) FullMatrix(ctx context.Context, locations []domain.Coordinates) (ports.Matrix, error) {
	if len(locations) == 0 {
		return ports.Matrix{}, errors.New("haversine matrix: locations must not be empty")
	}

	n := len(locations)
	matrix := ports.Matrix{
		Distances: newIntMatrix(n),
		Durations: newIntMatrix(n),
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			meters := int(math.Round(locations[i].HaversineMeters(locations[j])))
			seconds := estimateSeconds(meters)

			matrix.Distances[i][j] = meters
			matrix.Distances[j][i] = meters
			matrix.Durations[i][j] = seconds
			matrix.Durations[j][i] = seconds
		}
	}

	return matrix, nil
}

func estimateSeconds(meters int) int {
	return int(math.Round(float64(meters) / averageSpeedMPS))
}

func decodeJSON(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
