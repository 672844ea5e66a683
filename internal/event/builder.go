// Package event assembles dashboard events: archive search, cache, load and chart.
package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mms-viewer/backend/internal/archive"
	"github.com/mms-viewer/backend/internal/chart"
	"github.com/mms-viewer/backend/internal/models"
	"github.com/mms-viewer/backend/internal/parser"
	"github.com/mms-viewer/backend/internal/storage"
)

// DefaultApproxNumPoints is the point budget used when a request leaves it unset.
const DefaultApproxNumPoints = 10000

// ErrNoFiles is returned when the archive lists nothing for a request.
var ErrNoFiles = errors.New("no files found")

// Archive is the part of the archive client the builder needs.
type Archive interface {
	SearchFiles(ctx context.Context, req archive.SearchRequest) ([]models.FileRecord, error)
	DownloadFile(ctx context.Context, fileName string, dest archive.Sink) (*models.CachedFile, error)
}

// Request describes one event. Start is the day unless Exact is set,
// in which case Start and End bound the query to the second.
type Request struct {
	Start           time.Time
	End             time.Time
	Exact           bool
	Probe           int
	Instrument      models.Instrument
	DataRate        models.DataRate
	ApproxNumPoints int
}

// State is a built event together with its chart.
type State struct {
	Event *models.Event
	Chart *chart.Chart
}

// Builder runs the event pipeline sequentially. Concurrent builds that need
// the same uncached file share one download.
type Builder struct {
	archive   Archive
	store     storage.Store
	loaders   *parser.Registry
	logger    *zap.Logger
	downloads singleflight.Group
}

// NewBuilder creates a pipeline over an archive, a local cache and the file loaders.
func NewBuilder(a Archive, store storage.Store, loaders *parser.Registry, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{archive: a, store: store, loaders: loaders, logger: logger}
}

// Build searches the archive, fetches the first listed file unless cached,
// loads it and prepares the chart.
func (b *Builder) Build(ctx context.Context, req Request) (*State, error) {
	if req.ApproxNumPoints == 0 {
		req.ApproxNumPoints = DefaultApproxNumPoints
	}
	if req.Probe == 0 {
		req.Probe = 1
	}
	if req.DataRate == "" {
		req.DataRate = models.DataRateFast
	}

	r := archive.BuildRange(req.Start, req.End, req.Exact)
	log := b.logger.With(zap.String("range", r.String()), zap.String("instrument", string(req.Instrument)))

	files, err := b.archive.SearchFiles(ctx, archive.SearchRequest{
		Range:      r,
		Instrument: req.Instrument,
		Probe:      req.Probe,
		DataRate:   req.DataRate,
	})
	if err != nil {
		return nil, fmt.Errorf("searching archive: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoFiles, r)
	}

	name := files[0].FileName
	path, err := b.store.Path(name)
	if err != nil {
		return nil, err
	}

	if err := b.fetch(ctx, name, log); err != nil {
		return nil, err
	}

	table, err := b.loaders.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}

	c, err := chart.BuildChart(table, req.ApproxNumPoints)
	if err != nil {
		return nil, err
	}
	log.Info("event ready", zap.String("file", name), zap.Int("rows", table.Len()), zap.Int("points", c.Len()))

	return &State{
		Event: &models.Event{
			Range:      r,
			Probe:      req.Probe,
			Instrument: req.Instrument,
			DataRate:   req.DataRate,
			Files:      files,
			SourceFile: name,
			Table:      table,
			RowCount:   table.Len(),
			CreatedAt:  time.Now(),
		},
		Chart: c,
	}, nil
}

// fetch makes sure name is in the cache, downloading it at most once at a time.
func (b *Builder) fetch(ctx context.Context, name string, log *zap.Logger) error {
	_, err, shared := b.downloads.Do(name, func() (interface{}, error) {
		if b.store.Exists(name) {
			log.Info("using cached file", zap.String("file", name))
			return nil, nil
		}
		log.Info("file not cached, downloading", zap.String("file", name))
		if _, err := b.archive.DownloadFile(ctx, name, b.store); err != nil {
			return nil, fmt.Errorf("downloading %s: %w", name, err)
		}
		return nil, nil
	})
	if shared {
		log.Debug("joined in-flight fetch", zap.String("file", name))
	}
	return err
}
