package distance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"last-mile-service/internal/domain"
	"last-mile-service/internal/platform/obs"
	"last-mile-service/internal/ports"
)

// The upstream caps elements per request; square matrices beyond this
// side length are fetched in batches.
const matrixBatchSize = 10

// MatrixProvider implements DistanceMatrixProvider against a Google
// Distance Matrix compatible endpoint.
//
// It batches large location sets to stay within API element limits,
// retries transient failures with backoff, and patches individual
// failed elements with haversine estimates so a partial upstream
// outage never sinks a whole optimization run.
//
// The provider is safe for concurrent use.
type MatrixProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	mode    string
}

func NewMatrixProvider(apiKey, baseURL string) (*MatrixProvider, error) {
	if apiKey == "" {
		return nil, errors.New("matrix provider: api key is empty")
	}
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com"
	}

	return &MatrixProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		mode:    "driving",
	}, nil
}

type matrixElement struct {
	Status   string `json:"status"`
	Distance struct {
		Value int `json:"value"`
	} `json:"distance"`
	Duration struct {
		Value int `json:"value"`
	} `json:"duration"`
}

type matrixAPIResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []matrixElement `json:"elements"`
	} `json:"rows"`
}

// FullMatrix returns the square travel matrix for all locations.
func (p *MatrixProvider) FullMatrix(ctx context.Context, locations []domain.Coordinates) (_ ports.Matrix, err error) {
	defer obs.Time(ctx, "matrix.FullMatrix")(&err)

	n := len(locations)
	if n == 0 {
		return ports.Matrix{}, errors.New("full matrix: locations must not be empty")
	}

	matrix := ports.Matrix{
		Distances: newIntMatrix(n),
		Durations: newIntMatrix(n),
	}

	for iStart := 0; iStart < n; iStart += matrixBatchSize {
		iEnd := min(iStart+matrixBatchSize, n)
		for jStart := 0; jStart < n; jStart += matrixBatchSize {
			jEnd := min(jStart+matrixBatchSize, n)

			if err := p.fetchBlock(ctx, locations, iStart, iEnd, jStart, jEnd, &matrix); err != nil {
				return ports.Matrix{}, fmt.Errorf(
					"full matrix: block [%d:%d)x[%d:%d): %w", iStart, iEnd, jStart, jEnd, err,
				)
			}
		}
	}

	return matrix, nil
}

// fetchBlock fills one origins x destinations block of the matrix.
func (p *MatrixProvider) fetchBlock(
	ctx context.Context,
	locations []domain.Coordinates,
	iStart, iEnd, jStart, jEnd int,
	matrix *ports.Matrix,
) error {
	endpoint := p.baseURL + "/maps/api/distancematrix/json"

	q := url.Values{}
	q.Set("origins", joinCoords(locations[iStart:iEnd]))
	q.Set("destinations", joinCoords(locations[jStart:jEnd]))
	q.Set("mode", p.mode)
	q.Set("units", "metric")
	q.Set("key", p.apiKey)

	full := endpoint + "?" + q.Encode()

	resp, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		return p.newRequest(ctx, http.MethodGet, full, nil)
	})
	if err != nil {
		return fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var ar matrixAPIResponse
	if err := decodeJSON(resp.Body, &ar); err != nil {
		return fmt.Errorf("decode matrix response: %w", err)
	}

	if ar.Status != "OK" {
		return fmt.Errorf("matrix API status %q", ar.Status)
	}
	if len(ar.Rows) != iEnd-iStart {
		return fmt.Errorf("expected %d rows; got %d", iEnd-iStart, len(ar.Rows))
	}

	for i, row := range ar.Rows {
		if len(row.Elements) != jEnd-jStart {
			return fmt.Errorf("row %d: expected %d elements; got %d", i, jEnd-jStart, len(row.Elements))
		}
		for j, el := range row.Elements {
			gi, gj := iStart+i, jStart+j
			if el.Status == "OK" {
				matrix.Distances[gi][gj] = el.Distance.Value
				matrix.Durations[gi][gj] = el.Duration.Value
				continue
			}

			// Patch failed elements with haversine estimates.
			meters := int(locations[gi].HaversineMeters(locations[gj]))
			matrix.Distances[gi][gj] = meters
			matrix.Durations[gi][gj] = estimateSeconds(meters)
		}
	}

	return nil
}

func joinCoords(coords []domain.Coordinates) string {
	parts := make([]string, 0, len(coords))
	for _, c := range coords {
		parts = append(parts, fmt.Sprintf("%f,%f", c.Lat, c.Lng))
	}
	return strings.Join(parts, "|")
}

func newIntMatrix(n int) [][]int {
	m := make([][]int, n)
	for i := range m {
		m[i] = make([]int, n)
	}
	return m
}
