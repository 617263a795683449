package subvol

import (
	"fmt"
	"strconv"
	"strings"
)

// Point3d is a voxel-space coordinate: an ordered list of three signed 32-bit integers
// giving the x, y, z position of a voxel within a volume.
type Point3d [3]int32

// Point3dFromIndex returns the voxel coordinate of the flat index i within a volume of
// the given dimensions.  Voxels are laid out x-fastest, then y, then z.
func Point3dFromIndex(i uint64, dims Point3d) Point3d {
	nx := uint64(dims[0])
	ny := uint64(dims[1])
	return Point3d{
		int32(i % nx),
		int32((i / nx) % ny),
		int32((i / nx) / ny),
	}
}

// Index returns the flat index of the voxel within a volume of the given dimensions.
func (p Point3d) Index(dims Point3d) uint64 {
	return uint64(p[0]) + uint64(dims[0])*(uint64(p[1])+uint64(dims[1])*uint64(p[2]))
}

// Next advances p to the voxel following it in flat order and returns the result.
// Advancing the last voxel of a volume wraps z past the volume bounds.
func (p Point3d) Next(dims Point3d) Point3d {
	p[0]++
	if p[0] < dims[0] {
		return p
	}
	p[0] = 0
	p[1]++
	if p[1] < dims[1] {
		return p
	}
	p[1] = 0
	p[2]++
	return p
}

// Div returns the component-wise integer division of the receiver by the passed point.
func (p Point3d) Div(p2 Point3d) Point3d {
	return Point3d{p[0] / p2[0], p[1] / p2[1], p[2] / p2[2]}
}

// Mult returns the component-wise multiplication of the receiver by the passed point.
func (p Point3d) Mult(p2 Point3d) Point3d {
	return Point3d{p[0] * p2[0], p[1] * p2[1], p[2] * p2[2]}
}

// MaxComponent returns the largest of the three components.
func (p Point3d) MaxComponent() int32 {
	max := p[0]
	if p[1] > max {
		max = p[1]
	}
	if p[2] > max {
		max = p[2]
	}
	return max
}

// Prod returns the product of the point elements.
func (p Point3d) Prod() int64 {
	return int64(p[0]) * int64(p[1]) * int64(p[2])
}

func (p Point3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

// Chunk returns the block-space coordinate of the block of the given voxel size
// containing the point.  Only non-negative points are expected within a volume.
func (p Point3d) Chunk(size Point3d) ChunkPoint3d {
	return ChunkPoint3d{p[0] / size[0], p[1] / size[1], p[2] / size[2]}
}

// ChunkPoint3d is a block-space coordinate: the i, j, k position of a block within a
// regular grid of blocks.
type ChunkPoint3d [3]int32

// ChunkPoint3dFromIndex returns the block coordinate of the flat block index i within a
// grid of the given block counts.
func ChunkPoint3dFromIndex(i uint64, counts ChunkPoint3d) ChunkPoint3d {
	p := Point3dFromIndex(i, Point3d(counts))
	return ChunkPoint3d(p)
}

// Index returns the row-major flat index i + bx*(j + by*k) of the block.
func (c ChunkPoint3d) Index(counts ChunkPoint3d) uint64 {
	return Point3d(c).Index(Point3d(counts))
}

// Within returns true if every component of the block coordinate is below the
// corresponding block count.
func (c ChunkPoint3d) Within(counts ChunkPoint3d) bool {
	return c[0] < counts[0] && c[1] < counts[1] && c[2] < counts[2]
}

// Prod returns the number of blocks in a grid with these counts.
func (c ChunkPoint3d) Prod() int64 {
	return Point3d(c).Prod()
}

func (c ChunkPoint3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c[0], c[1], c[2])
}

// MinPoint returns the smallest voxel coordinate of the given 3d block.
func (c ChunkPoint3d) MinPoint(size Point3d) Point3d {
	return Point3d{
		c[0] * size[0],
		c[1] * size[1],
		c[2] * size[2],
	}
}

// MaxPoint returns the maximum voxel coordinate of the given 3d block.
func (c ChunkPoint3d) MaxPoint(size Point3d) Point3d {
	return Point3d{
		(c[0]+1)*size[0] - 1,
		(c[1]+1)*size[1] - 1,
		(c[2]+1)*size[2] - 1,
	}
}

// StringToPoint3d parses a string of format "%d<sep>%d<sep>%d" into a Point3d.
func StringToPoint3d(str, separator string) (Point3d, error) {
	elems := strings.Split(str, separator)
	if len(elems) != 3 {
		return Point3d{}, fmt.Errorf("cannot convert %q into a 3d point", str)
	}
	var p Point3d
	for i, elem := range elems {
		n, err := strconv.ParseInt(strings.TrimSpace(elem), 10, 32)
		if err != nil {
			return Point3d{}, fmt.Errorf("cannot convert %q into a 3d point: %v", str, err)
		}
		p[i] = int32(n)
	}
	return p, nil
}

// Vector3d is a 3D vector of 64-bit floats, a recommended type for math operations.
type Vector3d [3]float64

func (v Vector3d) Add(x Vector3d) Vector3d {
	return Vector3d{v[0] + x[0], v[1] + x[1], v[2] + x[2]}
}

func (v Vector3d) Subtract(x Vector3d) Vector3d {
	return Vector3d{v[0] - x[0], v[1] - x[1], v[2] - x[2]}
}

// Mult returns the component-wise product of two vectors.
func (v Vector3d) Mult(x Vector3d) Vector3d {
	return Vector3d{v[0] * x[0], v[1] * x[1], v[2] * x[2]}
}

func (v Vector3d) DivideScalar(x float64) Vector3d {
	return Vector3d{v[0] / x, v[1] / x, v[2] / x}
}

func (v Vector3d) String() string {
	return fmt.Sprintf("(%f,%f,%f)", v[0], v[1], v[2])
}
