// Package tfunc loads and evaluates piecewise-linear transfer functions that map a
// normalized scalar intensity onto a relevance value.
package tfunc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/janelia-flyem/subvol/subvol"
)

// Point is a single control point of a transfer function.
type Point struct {
	X float64
	Y float64
}

// TransferFunction is an immutable, ordered list of control points with strictly
// increasing X.
type TransferFunction struct {
	name string
	xs   []float64
	ys   []float64
}

// Load reads a transfer function file.  The first line holds a header or point count and
// is skipped; every following non-blank line holds whitespace separated "x y" values.
func Load(path string) (*TransferFunction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &subvol.IOError{Op: "open transfer function", Path: path, Err: err}
	}
	defer f.Close()
	tf, err := parse(f, path)
	if err != nil {
		return nil, err
	}
	tf.name = filepath.Base(path)
	return tf, nil
}

// Parse reads a transfer function from r.  The name is used in error messages and
// returned by Name.
func Parse(r io.Reader, name string) (*TransferFunction, error) {
	tf, err := parse(r, name)
	if err != nil {
		return nil, err
	}
	tf.name = name
	return tf, nil
}

func parse(r io.Reader, path string) (*TransferFunction, error) {
	var points []Point
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum == 1 {
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, &subvol.FormatError{Path: path, Line: lineNum,
				Msg: fmt.Sprintf("expected \"x y\", got %q", scanner.Text())}
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, &subvol.FormatError{Path: path, Line: lineNum, Msg: fmt.Sprintf("bad x value %q", fields[0])}
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, &subvol.FormatError{Path: path, Line: lineNum, Msg: fmt.Sprintf("bad y value %q", fields[1])}
		}
		points = append(points, Point{x, y})
	}
	if err := scanner.Err(); err != nil {
		return nil, &subvol.IOError{Op: "read transfer function", Path: path, Err: err}
	}
	return newTransferFunction(points, path)
}

// New returns a transfer function over the given control points after validating them.
func New(points []Point) (*TransferFunction, error) {
	return newTransferFunction(points, "")
}

func newTransferFunction(points []Point, path string) (*TransferFunction, error) {
	if len(points) < 2 {
		return nil, &subvol.FormatError{Path: path,
			Msg: fmt.Sprintf("need at least 2 control points, got %d", len(points))}
	}
	tf := &TransferFunction{
		name: path,
		xs:   make([]float64, len(points)),
		ys:   make([]float64, len(points)),
	}
	for i, pt := range points {
		if i > 0 {
			prev := points[i-1].X
			if pt.X < prev {
				return nil, &subvol.FormatError{Path: path,
					Msg: fmt.Sprintf("control point %d has x %g below previous x %g", i, pt.X, prev)}
			}
			if pt.X == prev {
				return nil, &subvol.FormatError{Path: path,
					Msg: fmt.Sprintf("control points %d and %d share x %g (zero-length segment)", i-1, i, pt.X)}
			}
		}
		tf.xs[i] = pt.X
		tf.ys[i] = pt.Y
	}
	return tf, nil
}

// Name returns the base name of the file the function was loaded from.
func (tf *TransferFunction) Name() string {
	return tf.name
}

// Len returns the number of control points.
func (tf *TransferFunction) Len() int {
	return len(tf.xs)
}

// Points returns a copy of the control points.
func (tf *TransferFunction) Points() []Point {
	points := make([]Point, len(tf.xs))
	for i := range tf.xs {
		points[i] = Point{tf.xs[i], tf.ys[i]}
	}
	return points
}

// Evaluate returns the relevance at normalized scalar x in [0,1].
//
// The interpolation segment is picked from idx = round(x*(N-1)): idx above the last
// point uses the final segment, idx zero uses the first segment, and any other idx uses
// the segment ending at idx.  Values outside the chosen segment extrapolate linearly.
func (tf *TransferFunction) Evaluate(x float64) float64 {
	maxIdx := len(tf.xs) - 1
	idx := int(x*float64(maxIdx) + 0.5)

	var k0, k1 int
	switch {
	case idx > maxIdx:
		k0, k1 = maxIdx-1, maxIdx
	case idx <= 0:
		k0, k1 = 0, 1
	default:
		k0, k1 = idx-1, idx
	}
	d := (x - tf.xs[k0]) / (tf.xs[k1] - tf.xs[k0])
	return tf.ys[k0]*(1.0-d) + tf.ys[k1]*d
}
