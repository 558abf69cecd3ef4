package display

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"fitsview/internal/models"
)

// Stats summarizes the samples currently displayed.
type Stats struct {
	DType models.DType
	Shape []int
	Size  int
	Bytes int

	// Min, Max, Mean and Std cover finite samples only
	Min  float64
	Max  float64
	Mean float64
	Std  float64

	Finite int
	NaN    int
	Inf    int
}

func computeStats(a *models.Array) Stats {
	st := Stats{
		DType: a.DType,
		Shape: append([]int(nil), a.Shape...),
		Size:  a.Len(),
		Bytes: a.Len() * a.DType.Size(),
	}

	for _, v := range a.Data {
		switch {
		case math.IsNaN(v):
			st.NaN++
		case math.IsInf(v, 0):
			st.Inf++
		}
	}

	finite := a.Finite()
	st.Finite = len(finite)
	if len(finite) > 0 {
		st.Min = floats.Min(finite)
		st.Max = floats.Max(finite)
		st.Mean, st.Std = stat.PopMeanStdDev(finite, nil)
	}
	return st
}

// String renders the statistics as the block shown by the stats view.
func (st Stats) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Data type: %s\n", st.DType)
	fmt.Fprintf(&sb, "Shape: %v\n", st.Shape)
	fmt.Fprintf(&sb, "Size: %d elements\n", st.Size)
	fmt.Fprintf(&sb, "Memory: %.2f MB\n", float64(st.Bytes)/(1024*1024))
	if st.Finite > 0 {
		fmt.Fprintf(&sb, "Min: %.6g\n", st.Min)
		fmt.Fprintf(&sb, "Max: %.6g\n", st.Max)
		fmt.Fprintf(&sb, "Mean: %.6g\n", st.Mean)
		fmt.Fprintf(&sb, "Std: %.6g\n", st.Std)
	} else {
		sb.WriteString("No finite values\n")
	}
	if st.NaN > 0 {
		fmt.Fprintf(&sb, "NaN values: %d\n", st.NaN)
	}
	if st.Inf > 0 {
		fmt.Fprintf(&sb, "Inf values: %d\n", st.Inf)
	}
	return sb.String()
}
