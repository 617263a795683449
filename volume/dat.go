package volume

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/janelia-flyem/subvol/subvol"
)

// Descriptor is the content of a .dat volume descriptor, a small "Key: value" text file
// that names a raw volume and gives its layout.
type Descriptor struct {
	// RawPath is the absolute path of the raw volume (ObjectFileName, resolved against
	// the descriptor's directory).
	RawPath string

	Dims     subvol.Point3d  // Resolution
	DataType subvol.DataType // Format

	// SliceThickness is the voxel spacing.  Defaults to 1 in each dimension.
	SliceThickness subvol.Vector3d
}

// ReadDescriptor parses the .dat descriptor at path.  ObjectFileName, Resolution and
// Format are required; unknown keys are ignored.
func ReadDescriptor(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &subvol.IOError{Op: "open descriptor", Path: path, Err: err}
	}
	defer f.Close()

	d := &Descriptor{SliceThickness: subvol.Vector3d{1, 1, 1}}
	var haveRaw, haveDims, haveFormat bool

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			return nil, &subvol.FormatError{Path: path, Line: lineNum, Msg: fmt.Sprintf("expected \"Key: value\", got %q", line)}
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		value := strings.TrimSpace(line[colon+1:])
		switch key {
		case "objectfilename":
			if value == "" {
				return nil, &subvol.FormatError{Path: path, Line: lineNum, Msg: "empty ObjectFileName"}
			}
			raw, err := subvol.ConvertToAbsolute(value, filepath.Dir(path))
			if err != nil {
				return nil, &subvol.IOError{Op: "resolve raw path", Path: value, Err: err}
			}
			d.RawPath = raw
			haveRaw = true
		case "resolution":
			dims, err := subvol.StringToPoint3d(strings.Join(strings.Fields(value), " "), " ")
			if err != nil {
				return nil, &subvol.FormatError{Path: path, Line: lineNum, Msg: fmt.Sprintf("bad Resolution %q: %v", value, err)}
			}
			d.Dims = dims
			haveDims = true
		case "format":
			dtype, err := subvol.ParseDataType(value)
			if err != nil {
				return nil, &subvol.FormatError{Path: path, Line: lineNum, Msg: fmt.Sprintf("unsupported Format %q", value)}
			}
			d.DataType = dtype
			haveFormat = true
		case "slicethickness":
			fields := strings.Fields(value)
			if len(fields) != 3 {
				return nil, &subvol.FormatError{Path: path, Line: lineNum, Msg: fmt.Sprintf("bad SliceThickness %q", value)}
			}
			for i, s := range fields {
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return nil, &subvol.FormatError{Path: path, Line: lineNum, Msg: fmt.Sprintf("bad SliceThickness %q", value)}
				}
				d.SliceThickness[i] = v
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &subvol.IOError{Op: "read descriptor", Path: path, Err: err}
	}
	switch {
	case !haveRaw:
		return nil, &subvol.FormatError{Path: path, Msg: "missing ObjectFileName"}
	case !haveDims:
		return nil, &subvol.FormatError{Path: path, Msg: "missing Resolution"}
	case !haveFormat:
		return nil, &subvol.FormatError{Path: path, Msg: "missing Format"}
	}
	return d, nil
}

// Open maps the raw volume named by the descriptor.
func (d *Descriptor) Open() (*Accessor, error) {
	return Open(d.RawPath, d.DataType, d.Dims)
}
