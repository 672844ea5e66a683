// decimate.go - Row reduction for plotting large measurement tables
package chart

import (
	"errors"
	"fmt"

	"github.com/mms-viewer/backend/internal/metrics"
	"github.com/mms-viewer/backend/internal/models"
)

// DecimationThreshold is the largest row count plotted without reduction.
const DecimationThreshold = 3000

// ErrInvalidPointBudget is returned when the requested point budget cannot produce a stride.
var ErrInvalidPointBudget = fmt.Errorf("%w: invalid point budget", models.ErrConfiguration)

// Stride returns the step used to reduce rows to roughly approxNumPoints.
// Tables at or below the threshold are not reduced and report a stride of 1.
func Stride(rows, approxNumPoints int) (int, error) {
	if rows <= DecimationThreshold {
		return 1, nil
	}
	if approxNumPoints <= 0 {
		return 0, fmt.Errorf("%w: approx number of points must be positive, got %d", ErrInvalidPointBudget, approxNumPoints)
	}
	stride := rows / approxNumPoints
	if stride == 0 {
		return 0, fmt.Errorf("%w: %d points requested for %d rows", ErrInvalidPointBudget, approxNumPoints, rows)
	}
	return stride, nil
}

// Decimate keeps every stride-th row starting at row 0.
// Small tables are returned unchanged; reduced tables are flagged for calendar time display.
func Decimate(table *models.MeasurementTable, approxNumPoints int) (*models.MeasurementTable, error) {
	if table == nil {
		return nil, errors.New("nil measurement table")
	}
	n := table.Len()
	stride, err := Stride(n, approxNumPoints)
	if err != nil {
		return nil, err
	}
	if stride == 1 && n <= DecimationThreshold {
		return table, nil
	}

	out := &models.MeasurementTable{
		Columns:       append([]string(nil), table.Columns...),
		Index:         make([]float64, 0, n/stride+1),
		Rows:          make([][]float64, 0, n/stride+1),
		CalendarIndex: true,
	}
	for i := 0; i < n; i += stride {
		out.Index = append(out.Index, table.Index[i])
		out.Rows = append(out.Rows, table.Rows[i])
	}

	metrics.DecimatedRows.Add(float64(n - out.Len()))
	return out, nil
}
