package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"last-mile-service/internal/domain"
)

// XlsxRenderer writes delivery receipts as spreadsheet documents, the
// format the back office already consumes. The filename derives
// deterministically from the sanitized client name and folio.
type XlsxRenderer struct {
	Dir string
}

func NewXlsxRenderer(dir string) *XlsxRenderer {
	return &XlsxRenderer{Dir: dir}
}

func (r *XlsxRenderer) Render(ctx context.Context, rec domain.Receipt) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("render receipt: create dir %q: %w: %v", r.Dir, domain.ErrRenderFailure, err)
	}

	name := fmt.Sprintf("remision_%s_%03d.xlsx", domain.SanitizeFileName(rec.ClientName), rec.FolioNote)
	path := filepath.Join(r.Dir, name)

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	set := func(cell string, value any) error {
		return f.SetCellValue(sheet, cell, value)
	}

	cells := []struct {
		cell  string
		value any
	}{
		{"A1", "NOTA DE REMISIÓN"},
		{"A2", fmt.Sprintf("Folio: %03d", rec.FolioNote)},
		{"A3", "Fecha"},
		{"B3", rec.Date.Format("2006-01-02 15:04")},
		{"A4", "Cliente"},
		{"B4", rec.ClientName},
		{"A6", "Producto"},
		{"B6", "Cantidad (kg)"},
		{"C6", "Precio Unitario"},
		{"D6", "Total"},
		{"A7", rec.Product},
		{"B7", rec.Kg},
		{"C7", rec.UnitPrice},
		{"D7", rec.Total},
		{"A9", "TOTAL A COBRAR"},
		{"B9", rec.Total},
	}
	for _, c := range cells {
		if err := set(c.cell, c.value); err != nil {
			return "", fmt.Errorf("render receipt: set cell %s: %w: %v", c.cell, domain.ErrRenderFailure, err)
		}
	}

	if rec.PriceEstimated {
		if err := set("A10", "* Precio estimado, sujeto a confirmación"); err != nil {
			return "", fmt.Errorf("render receipt: set estimate note: %w: %v", domain.ErrRenderFailure, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("render receipt: save %q: %w: %v", path, domain.ErrRenderFailure, err)
	}

	return path, nil
}
