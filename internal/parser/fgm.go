package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mms-viewer/backend/internal/cdf"
	"github.com/mms-viewer/backend/internal/metrics"
	"github.com/mms-viewer/backend/internal/models"
)

const (
	// FGMFieldPattern matches the GSE magnetic field vector of any probe, survey or burst, level 2.
	FGMFieldPattern = `mms[0-9]_fgm_b_gse_(?:srvy|brst)_l2`
	// TimeVariable holds the record timestamps.
	TimeVariable = "Epoch"
)

// ErrUnexpectedShape is returned when the field variable is not N x 4 with one row per timestamp.
var ErrUnexpectedShape = errors.New("unexpected variable shape")

// FGMLoader reads fluxgate magnetometer files into bx, by, bz, bt tables.
type FGMLoader struct {
	logger *zap.Logger
}

// NewFGMLoader creates a loader for magnetometer files.
func NewFGMLoader(logger *zap.Logger) *FGMLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FGMLoader{logger: logger}
}

func (l *FGMLoader) Name() string {
	return "fgm"
}

// CanLoad matches archive names such as mms1_fgm_srvy_l2_20180313_v5.130.0.cdf.
func (l *FGMLoader) CanLoad(filePath string) bool {
	base := strings.ToLower(filepath.Base(filePath))
	return strings.Contains(base, "_fgm_") && strings.HasSuffix(base, ".cdf")
}

// Load opens a magnetometer file and returns its field measurements indexed by time.
func (l *FGMLoader) Load(filePath string) (*models.MeasurementTable, error) {
	f, err := cdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filePath, err)
	}
	return l.LoadFile(f)
}

// LoadFile builds the table from an already parsed container.
func (l *FGMLoader) LoadFile(f *cdf.File) (*models.MeasurementTable, error) {
	zvars := f.ZVariables()
	l.logger.Debug("zVariables", zap.Strings("zvars", zvars))

	epoch, err := f.VarGet(TimeVariable)
	if err != nil {
		return nil, err
	}
	index, err := cdf.UnixSeconds(epoch)
	if err != nil {
		return nil, err
	}

	name, err := MatchFirst(FGMFieldPattern, zvars)
	if err != nil {
		return nil, err
	}
	field, err := f.VarGet(name)
	if err != nil {
		return nil, err
	}

	if per := field.ValuesPerRecord(); per != len(models.FGMColumns) {
		return nil, fmt.Errorf("%w: %s has %d columns, want %d", ErrUnexpectedShape, name, per, len(models.FGMColumns))
	}
	if field.NumRecords != len(index) {
		return nil, fmt.Errorf("%w: %s has %d rows but %s has %d", ErrUnexpectedShape, name, field.NumRecords, TimeVariable, len(index))
	}

	rows, err := field.Rows()
	if err != nil {
		return nil, err
	}

	metrics.LoadedRows.Add(float64(len(rows)))
	l.logger.Debug("loaded field variable", zap.String("variable", name), zap.Int("rows", len(rows)))

	return &models.MeasurementTable{
		Index:   index,
		Columns: append([]string(nil), models.FGMColumns...),
		Rows:    rows,
	}, nil
}
