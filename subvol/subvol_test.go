package subvol

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	. "github.com/janelia-flyem/go/gocheck"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type DataSuite struct{}

var _ = Suite(&DataSuite{})

func (s *DataSuite) TestPoint3dIndex(c *C) {
	dims := Point3d{10, 7, 3}
	for i := uint64(0); i < uint64(dims.Prod()); i++ {
		p := Point3dFromIndex(i, dims)
		c.Assert(p.Index(dims), Equals, i)
	}
	c.Assert(Point3dFromIndex(0, dims), Equals, Point3d{0, 0, 0})
	c.Assert(Point3dFromIndex(9, dims), Equals, Point3d{9, 0, 0})
	c.Assert(Point3dFromIndex(10, dims), Equals, Point3d{0, 1, 0})
	c.Assert(Point3dFromIndex(70, dims), Equals, Point3d{0, 0, 1})
	c.Assert(Point3dFromIndex(209, dims), Equals, Point3d{9, 6, 2})
}

func (s *DataSuite) TestPoint3dNext(c *C) {
	dims := Point3d{4, 3, 2}
	p := Point3d{0, 0, 0}
	for i := uint64(0); i < uint64(dims.Prod()); i++ {
		c.Assert(p, Equals, Point3dFromIndex(i, dims))
		p = p.Next(dims)
	}
	c.Assert(p, Equals, Point3d{0, 0, 2})
}

func (s *DataSuite) TestChunkPoint3d(c *C) {
	size := Point3d{3, 3, 3}
	c.Assert(Point3d{0, 0, 0}.Chunk(size), Equals, ChunkPoint3d{0, 0, 0})
	c.Assert(Point3d{2, 5, 8}.Chunk(size), Equals, ChunkPoint3d{0, 1, 2})
	c.Assert(Point3d{9, 9, 9}.Chunk(size), Equals, ChunkPoint3d{3, 3, 3})

	counts := ChunkPoint3d{3, 3, 3}
	c.Assert(ChunkPoint3d{2, 2, 2}.Within(counts), Equals, true)
	c.Assert(ChunkPoint3d{3, 0, 0}.Within(counts), Equals, false)
	c.Assert(ChunkPoint3d{0, 0, 3}.Within(counts), Equals, false)

	c.Assert(ChunkPoint3d{1, 2, 0}.Index(counts), Equals, uint64(7))
	c.Assert(ChunkPoint3dFromIndex(7, counts), Equals, ChunkPoint3d{1, 2, 0})
	c.Assert(ChunkPoint3d{1, 1, 1}.MinPoint(size), Equals, Point3d{3, 3, 3})
	c.Assert(ChunkPoint3d{1, 1, 1}.MaxPoint(size), Equals, Point3d{5, 5, 5})
	c.Assert(counts.String(), Equals, "(3,3,3)")
}

func (s *DataSuite) TestStringToPoint3d(c *C) {
	p, err := StringToPoint3d("10, 20,30", ",")
	c.Assert(err, IsNil)
	c.Assert(p, Equals, Point3d{10, 20, 30})
	c.Assert(p.MaxComponent(), Equals, int32(30))

	_, err = StringToPoint3d("10,20", ",")
	c.Assert(err, NotNil)
	_, err = StringToPoint3d("10,x,20", ",")
	c.Assert(err, NotNil)
}

func (s *DataSuite) TestDataTypes(c *C) {
	for name, expected := range map[string]DataType{
		"uint8": T_uint8, "UCHAR": T_uint8, "unsigned short": T_uint16,
		"short": T_int16, "float": T_float32, "double": T_float64, "int": T_int32,
	} {
		t, err := ParseDataType(name)
		c.Assert(err, IsNil)
		c.Assert(t, Equals, expected)
	}
	_, err := ParseDataType("complex128")
	c.Assert(errors.Is(err, ErrConfig), Equals, true)

	c.Assert(T_uint16.Bytes(), Equals, int32(2))
	c.Assert(T_float64.Bytes(), Equals, int32(8))
	c.Assert(T_uint8.Min(), Equals, 0.0)
	c.Assert(T_uint8.Max(), Equals, 255.0)
	c.Assert(T_int16.Min(), Equals, -32768.0)
	c.Assert(T_float32.Max(), Equals, float64(math.MaxFloat32))
	c.Assert(T_float32.String(), Equals, "float32")
}

func (s *DataSuite) TestDecodeEncode(c *C) {
	values := []float64{0, 1, 100, 127}
	for _, t := range []DataType{T_uint8, T_int8, T_uint16, T_int16, T_uint32, T_int32, T_float32, T_float64} {
		var buf []byte
		for _, v := range values {
			buf = t.Encode(buf, v)
		}
		c.Assert(len(buf), Equals, len(values)*int(t.Bytes()))
		dec := t.Decoder()
		for i, v := range values {
			c.Assert(dec(buf[i*int(t.Bytes()):]), Equals, v)
		}
	}
	buf := T_int16.Encode(nil, -300)
	c.Assert(T_int16.Decoder()(buf), Equals, -300.0)
}

func (s *DataSuite) TestDataTypeJSON(c *C) {
	b, err := T_uint16.MarshalJSON()
	c.Assert(err, IsNil)
	c.Assert(string(b), Equals, `"uint16"`)

	var t DataType
	c.Assert(t.UnmarshalJSON([]byte(`"ushort"`)), IsNil)
	c.Assert(t, Equals, T_uint16)
	c.Assert(t.UnmarshalText([]byte("float")), IsNil)
	c.Assert(t, Equals, T_float32)
}

func (s *DataSuite) TestSerializeData(c *C) {
	data := bytes.Repeat([]byte("relevance of block 0123456789 "), 200)
	for _, compression := range []Compression{Uncompressed, Snappy, Zstd, Gzip} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			s, err := SerializeData(data, compression, checksum)
			c.Assert(err, IsNil)

			out, compress, err := DeserializeData(s, true)
			c.Assert(err, IsNil)
			c.Assert(compress, Equals, compression)
			c.Assert(out, DeepEquals, data)

			if checksum == CRC32 {
				corrupt := append([]byte(nil), s...)
				corrupt[len(corrupt)-1] ^= 0x04
				_, _, err = DeserializeData(corrupt, true)
				c.Assert(err, NotNil)
			}
		}
	}
}

func (s *DataSuite) TestParseCompression(c *C) {
	for name, expected := range map[string]Compression{"": Uncompressed, "none": Uncompressed,
		"snappy": Snappy, "ZSTD": Zstd, "gzip": Gzip} {
		compress, err := ParseCompression(name)
		c.Assert(err, IsNil)
		c.Assert(compress, Equals, expected)
		if name != "" {
			c.Assert(compress.String(), Equals, map[Compression]string{Uncompressed: "none",
				Snappy: "snappy", Zstd: "zstd", Gzip: "gzip"}[expected])
		}
	}
	_, err := ParseCompression("lzma")
	c.Assert(err, NotNil)
}

func (s *DataSuite) TestErrors(c *C) {
	var err error = &FormatError{Path: "tf.1dt", Line: 3, Msg: "x not ascending"}
	c.Assert(errors.Is(err, ErrFormat), Equals, true)
	c.Assert(errors.Is(err, ErrIO), Equals, false)
	c.Assert(err.Error(), Equals, "format error in tf.1dt line 3: x not ascending")

	cause := errors.New("permission denied")
	err = &IOError{Op: "open", Path: "/data/vol.raw", Err: cause}
	c.Assert(errors.Is(err, ErrIO), Equals, true)
	c.Assert(errors.Is(err, cause), Equals, true)
	c.Assert(err.Error(), Equals, "open /data/vol.raw: permission denied")

	err = &ConfigError{Field: "block count x", Value: 0, Msg: "must be at least 1"}
	c.Assert(errors.Is(err, ErrConfig), Equals, true)
}

func (s *DataSuite) TestSplitPath(c *C) {
	dir, name := SplitPath("/data/volumes/skull.raw")
	c.Assert(dir, Equals, "/data/volumes")
	c.Assert(name, Equals, "skull.raw")

	dir, name = SplitPath("skull.raw")
	c.Assert(dir, Equals, "")
	c.Assert(name, Equals, "skull.raw")

	abs, err := ConvertToAbsolute("vol/skull.raw", "/data")
	c.Assert(err, IsNil)
	c.Assert(abs, Equals, "/data/vol/skull.raw")
	abs, err = ConvertToAbsolute("/tmp/x.raw", "/data")
	c.Assert(err, IsNil)
	c.Assert(abs, Equals, "/tmp/x.raw")
}

type recordLogger struct {
	lines []string
}

func (r *recordLogger) record(level, format string, args ...interface{}) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}

func (r *recordLogger) Debugf(format string, args ...interface{})    { r.record("DEBUG", format, args...) }
func (r *recordLogger) Infof(format string, args ...interface{})     { r.record("INFO", format, args...) }
func (r *recordLogger) Warningf(format string, args ...interface{})  { r.record("WARNING", format, args...) }
func (r *recordLogger) Errorf(format string, args ...interface{})    { r.record("ERROR", format, args...) }
func (r *recordLogger) Criticalf(format string, args ...interface{}) { r.record("CRITICAL", format, args...) }
func (r *recordLogger) Shutdown()                                    {}

func (s *DataSuite) TestLogMode(c *C) {
	oldLogger, oldMode := logger, mode
	defer func() { logger, mode = oldLogger, oldMode }()

	rec := &recordLogger{}
	logger = rec
	SetLogMode(WarningMode)

	Debugf("debug %d\n", 1)
	Infof("info %d\n", 2)
	Warningf("warning %d\n", 3)
	Errorf("error %d\n", 4)
	timedLog := NewTimeLog()
	timedLog.Infof("timed info")
	timedLog.Warningf("timed warning")

	c.Assert(rec.lines, HasLen, 3)
	c.Assert(rec.lines[0], Equals, "WARNING warning 3\n")
	c.Assert(rec.lines[1], Equals, "ERROR error 4\n")
	c.Assert(strings.HasPrefix(rec.lines[2], "WARNING timed warning: "), Equals, true)
}
