package source

import (
	"fitsview/internal/models"
)

// MemoryUnit is one unit of an in-memory source. A nil Array makes the
// unit header-only.
type MemoryUnit struct {
	Name   string
	Array  *models.Array
	Header string
}

// Memory is a DataSource over arrays already held by the caller.
type Memory struct {
	units  []MemoryUnit
	closed bool
}

// NewMemory builds a source from the given units, in order.
func NewMemory(units ...MemoryUnit) *Memory {
	return &Memory{units: append([]MemoryUnit(nil), units...)}
}

func (m *Memory) Units() []models.UnitInfo {
	infos := make([]models.UnitInfo, len(m.units))
	for i, u := range m.units {
		infos[i] = models.UnitInfo{Index: i, Kind: models.HeaderOnly, Name: u.Name}
		if u.Array != nil {
			dtype := u.Array.DType
			infos[i].Kind = models.Image
			infos[i].Shape = append([]int(nil), u.Array.Shape...)
			infos[i].DType = &dtype
		}
	}
	return infos
}

// RawArray returns the caller's array as given; it is not copied.
func (m *Memory) RawArray(i int) (*models.Array, error) {
	if m.closed {
		return nil, ErrClosed
	}
	if err := checkIndex(i, len(m.units)); err != nil {
		return nil, err
	}
	return m.units[i].Array, nil
}

func (m *Memory) MetadataText(i int) (string, error) {
	if m.closed {
		return "", ErrClosed
	}
	if err := checkIndex(i, len(m.units)); err != nil {
		return "", err
	}
	return m.units[i].Header, nil
}

func (m *Memory) Close() error {
	m.closed = true
	return nil
}
