package parser

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mms-viewer/backend/internal/models"
)

// ErrNoLoader is returned when no loader recognises a file.
var ErrNoLoader = errors.New("no loader for file")

// Loader turns a downloaded science file into a measurement table.
type Loader interface {
	// Name returns the unique name of the loader.
	Name() string
	// CanLoad returns true if this loader can handle the given file.
	CanLoad(filePath string) bool
	// Load reads the whole file.
	Load(filePath string) (*models.MeasurementTable, error)
}

// Registry holds all available loaders and picks one per file.
type Registry struct {
	loaders []Loader
}

// NewRegistry creates a registry with the built-in loaders.
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{}
	r.Register(NewFGMLoader(logger))
	return r
}

// Register adds a new loader to the registry.
func (r *Registry) Register(l Loader) {
	r.loaders = append(r.loaders, l)
}

// FindLoader detects the correct loader for a file.
func (r *Registry) FindLoader(filePath string) (Loader, error) {
	for _, l := range r.loaders {
		if l.CanLoad(filePath) {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoLoader, filePath)
}

// Load finds the loader for filePath and runs it.
func (r *Registry) Load(filePath string) (*models.MeasurementTable, error) {
	l, err := r.FindLoader(filePath)
	if err != nil {
		return nil, err
	}
	return l.Load(filePath)
}
