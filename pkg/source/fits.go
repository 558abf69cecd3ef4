package source

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/astrogo/fitsio"

	"fitsview/internal/models"
)

// cardWidth is the fixed width of a FITS header card.
const cardWidth = 80

// encoding describes how the raw bytes of an image unit map to samples.
type encoding struct {
	bitpix int
	bzero  float64
	bscale float64
}

type fitsUnit struct {
	info   models.UnitInfo
	header string
	raw    []byte
	enc    encoding
}

// FITS is a DataSource over a FITS file. The whole file is read when it
// is opened; samples are decoded per request.
type FITS struct {
	path   string
	units  []fitsUnit
	closed bool
}

// OpenFITS reads the FITS file at path. Failures are returned as
// *SourceError.
func OpenFITS(path string) (*FITS, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, classify(path, err)
	}
	if fi.IsDir() {
		return nil, &SourceError{Path: path, Cause: Unknown, Err: fmt.Errorf("is a directory")}
	}

	r, err := os.Open(path)
	if err != nil {
		return nil, classify(path, err)
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, &SourceError{Path: path, Cause: Malformed, Err: err}
	}
	defer f.Close()

	src := &FITS{path: path}
	for i, hdu := range f.HDUs() {
		unit, err := readUnit(i, hdu)
		if err != nil {
			return nil, &SourceError{Path: path, Cause: Malformed, Err: err}
		}
		src.units = append(src.units, unit)
	}
	return src, nil
}

func readUnit(index int, hdu fitsio.HDU) (fitsUnit, error) {
	hdr := hdu.Header()
	unit := fitsUnit{
		info:   models.UnitInfo{Index: index, Kind: models.HeaderOnly, Name: hdu.Name()},
		header: headerText(hdr),
	}

	switch hdu.Type() {
	case fitsio.ASCII_TBL, fitsio.BINARY_TBL:
		unit.info.Kind = models.Table
		return unit, nil
	}

	img, ok := hdu.(fitsio.Image)
	if !ok {
		return unit, nil
	}

	axes := hdr.Axes()
	if len(axes) == 0 {
		return unit, nil
	}
	shape := make([]int, len(axes))
	n := 1
	for i, ax := range axes {
		// NAXIS1 varies fastest, so it becomes the last axis
		shape[len(axes)-1-i] = ax
		n *= ax
	}
	if n == 0 {
		return unit, nil
	}

	enc := encoding{
		bitpix: hdr.Bitpix(),
		bzero:  cardFloat(hdr, "BZERO", 0),
		bscale: cardFloat(hdr, "BSCALE", 1),
	}
	dtype, err := enc.dtype()
	if err != nil {
		return unit, err
	}

	raw := img.Raw()
	if want := n * abs(enc.bitpix) / 8; len(raw) < want {
		return unit, fmt.Errorf("unit %d: expected %d data bytes, got %d", index, want, len(raw))
	}

	unit.info.Kind = models.Image
	unit.info.Shape = shape
	unit.info.DType = &dtype
	unit.raw = raw
	unit.enc = enc
	return unit, nil
}

func (f *FITS) Units() []models.UnitInfo {
	infos := make([]models.UnitInfo, len(f.units))
	for i, u := range f.units {
		infos[i] = u.info
	}
	return infos
}

func (f *FITS) RawArray(i int) (*models.Array, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if err := checkIndex(i, len(f.units)); err != nil {
		return nil, err
	}
	u := f.units[i]
	if u.info.Kind != models.Image {
		return nil, nil
	}
	return decode(u.raw, u.info.Shape, u.enc)
}

func (f *FITS) MetadataText(i int) (string, error) {
	if f.closed {
		return "", ErrClosed
	}
	if err := checkIndex(i, len(f.units)); err != nil {
		return "", err
	}
	return f.units[i].header, nil
}

// Close releases the decoded file contents.
func (f *FITS) Close() error {
	f.closed = true
	f.units = nil
	return nil
}

// dtype returns the element type the samples are presented as. The
// BZERO offsets used to store unsigned (and signed byte) data in FITS
// map back to the matching integer type; any other scaling yields floats.
func (e encoding) dtype() (models.DType, error) {
	scaled := e.bzero != 0 || e.bscale != 1
	switch e.bitpix {
	case 8:
		switch {
		case !scaled:
			return models.Uint8, nil
		case e.bscale == 1 && e.bzero == -128:
			return models.Int8, nil
		}
		return models.Float32, nil
	case 16:
		switch {
		case !scaled:
			return models.Int16, nil
		case e.bscale == 1 && e.bzero == 1<<15:
			return models.Uint16, nil
		}
		return models.Float32, nil
	case 32:
		switch {
		case !scaled:
			return models.Int32, nil
		case e.bscale == 1 && e.bzero == 1<<31:
			return models.Uint32, nil
		}
		return models.Float64, nil
	case 64:
		if !scaled {
			return models.Int64, nil
		}
		return models.Float64, nil
	case -32:
		return models.Float32, nil
	case -64:
		return models.Float64, nil
	}
	return 0, fmt.Errorf("unsupported BITPIX %d", e.bitpix)
}

// decode converts big-endian raw bytes into a sample array.
func decode(raw []byte, shape []int, e encoding) (*models.Array, error) {
	dtype, err := e.dtype()
	if err != nil {
		return nil, err
	}
	a := models.NewArray(dtype, shape...)
	size := abs(e.bitpix) / 8
	if len(raw) < a.Len()*size {
		return nil, fmt.Errorf("expected %d data bytes, got %d", a.Len()*size, len(raw))
	}

	for i := range a.Data {
		b := raw[i*size : (i+1)*size]
		var v float64
		switch e.bitpix {
		case 8:
			v = float64(b[0])
		case 16:
			v = float64(int16(binary.BigEndian.Uint16(b)))
		case 32:
			v = float64(int32(binary.BigEndian.Uint32(b)))
		case 64:
			v = float64(int64(binary.BigEndian.Uint64(b)))
		case -32:
			v = float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
		case -64:
			v = math.Float64frombits(binary.BigEndian.Uint64(b))
		}
		a.Data[i] = e.bzero + e.bscale*v
	}
	return a, nil
}

// headerText renders the header as fixed-width card images.
func headerText(h *fitsio.Header) string {
	var sb strings.Builder
	n := len(h.Keys())
	for i := 0; i < n; i++ {
		sb.WriteString(formatCard(h.Card(i)))
		sb.WriteByte('\n')
	}
	sb.WriteString(pad("END"))
	return sb.String()
}

func formatCard(c *fitsio.Card) string {
	switch c.Name {
	case "COMMENT", "HISTORY", "":
		return pad(fmt.Sprintf("%-8s%s", c.Name, c.Comment))
	}

	var value string
	switch v := c.Value.(type) {
	case nil:
		value = ""
	case bool:
		value = "F"
		if v {
			value = "T"
		}
		value = fmt.Sprintf("%20s", value)
	case string:
		value = fmt.Sprintf("'%-8s'", strings.ReplaceAll(v, "'", "''"))
	case float32, float64:
		value = fmt.Sprintf("%20G", v)
	default:
		value = fmt.Sprintf("%20v", v)
	}

	line := fmt.Sprintf("%-8s= %s", c.Name, value)
	if c.Comment != "" {
		line += " / " + c.Comment
	}
	return pad(line)
}

// pad truncates or pads s to one card width.
func pad(s string) string {
	if len(s) >= cardWidth {
		return s[:cardWidth]
	}
	return s + strings.Repeat(" ", cardWidth-len(s))
}

// cardFloat reads a numeric card, returning def when absent or not numeric.
func cardFloat(h *fitsio.Header, name string, def float64) float64 {
	c := h.Get(name)
	if c == nil {
		return def
	}
	switch v := c.Value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	case float32:
		return float64(v)
	}
	return def
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
