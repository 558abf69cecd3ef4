package models

// UnitKind classifies a named data unit inside a container.
type UnitKind int

const (
	// HeaderOnly units carry metadata but no samples
	HeaderOnly UnitKind = iota

	// Image units carry an N-dimensional sample array
	Image

	// Table units carry tabular records the viewer does not image
	Table
)

func (k UnitKind) String() string {
	switch k {
	case Image:
		return "image"
	case Table:
		return "table"
	default:
		return "header"
	}
}

// UnitInfo summarizes one data unit of an open container.
type UnitInfo struct {
	// Index is the position of the unit in the container
	Index int

	// Kind tells whether the unit holds image samples
	Kind UnitKind

	// Shape is nil when the unit has no samples
	Shape []int

	// DType is nil when the unit has no samples
	DType *DType

	// Name is the unit's extension name, possibly empty
	Name string
}

// HasData reports whether the unit carries a sample array.
func (u UnitInfo) HasData() bool {
	return u.Shape != nil
}
