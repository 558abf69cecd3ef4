// Package source reads data containers made of numbered data units. Each
// unit is either a sample array with free-text metadata or metadata alone.
package source

import (
	"errors"
	"fmt"
	"io/fs"

	"fitsview/internal/models"
)

// DataSource is an open container of data units.
type DataSource interface {
	// Units lists every unit in container order
	Units() []models.UnitInfo

	// RawArray returns the samples of unit i, or nil and no error when
	// the unit has none
	RawArray(i int) (*models.Array, error)

	// MetadataText returns the unit's metadata as display text
	MetadataText(i int) (string, error)

	Close() error
}

var (
	// ErrSourceUnavailable matches every *SourceError with errors.Is
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrUnitOutOfRange is returned for unit indices the source does not have
	ErrUnitOutOfRange = errors.New("unit index out of range")

	// ErrClosed is returned by sources used after Close
	ErrClosed = errors.New("data source is closed")
)

// Cause distinguishes why a container could not be opened.
type Cause int

const (
	Unknown Cause = iota
	NotFound
	Permission
	Malformed
)

func (c Cause) String() string {
	switch c {
	case NotFound:
		return "not found"
	case Permission:
		return "permission denied"
	case Malformed:
		return "malformed container"
	default:
		return "unknown error"
	}
}

// SourceError reports a container that could not be opened or read.
type SourceError struct {
	Path  string
	Cause Cause
	Err   error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("cannot open %s: %s: %v", e.Path, e.Cause, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is makes every SourceError match ErrSourceUnavailable.
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// classify maps an os error to a SourceError cause.
func classify(path string, err error) *SourceError {
	cause := Unknown
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cause = NotFound
	case errors.Is(err, fs.ErrPermission):
		cause = Permission
	}
	return &SourceError{Path: path, Cause: cause, Err: err}
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d (have %d units)", ErrUnitOutOfRange, i, n)
	}
	return nil
}
