package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/subvol/indexfile"
	"github.com/janelia-flyem/subvol/subvol"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("unable to write %s: %v", path, err)
	}
}

// testRun writes an 8x8x8 uint16 volume whose values increase with flat index and an
// identity transfer function into a temporary directory.
func testRun(t *testing.T) (*Config, string) {
	t.Helper()
	dir := t.TempDir()
	var raw []byte
	for i := 0; i < 512; i++ {
		raw = subvol.T_uint16.Encode(raw, float64(i))
	}
	writeFile(t, filepath.Join(dir, "ramp.raw"), raw)
	writeFile(t, filepath.Join(dir, "identity.1dt"), []byte("2\n0 0\n1 1\n"))

	c := DefaultConfig()
	c.Volume.Raw = filepath.Join(dir, "ramp.raw")
	c.Volume.DataType = "ushort"
	c.Volume.Dims = []int32{8, 8, 8}
	c.Blocks.Counts = []int32{2, 2, 2}
	c.Transfer.Path = filepath.Join(dir, "identity.1dt")
	c.Output.Path = filepath.Join(dir, "ramp.json")
	return c, dir
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	config := `
[volume]
raw = "data/vol.raw"
dtype = "float"
dims = [64, 32, 16]

[blocks]
counts = [4, 4, 2]

[transfer]
path = "tf.1dt"
tmax = 0.75

[output]
path = "gs://bucket/index.bin"
format = "binary"
compression = "zstd"

[run]
workers = 3
print_blocks = true

[logging]
logfile = "logs/subvol.log"
max_log_size = 10
`
	filename := filepath.Join(dir, "run.toml")
	writeFile(t, filename, []byte(config))

	c, err := LoadConfig(filename)
	if err != nil {
		t.Fatalf("unable to load config: %v", err)
	}
	if c.Volume.Raw != filepath.Join(dir, "data", "vol.raw") {
		t.Errorf("raw path not made absolute: %s", c.Volume.Raw)
	}
	if c.Transfer.Path != filepath.Join(dir, "tf.1dt") || c.Logging.Logfile != filepath.Join(dir, "logs", "subvol.log") {
		t.Errorf("relative paths not converted: %s, %s", c.Transfer.Path, c.Logging.Logfile)
	}
	if c.Output.Path != "gs://bucket/index.bin" {
		t.Errorf("bucket url should be kept as is, got %s", c.Output.Path)
	}
	if c.Transfer.TMin != 0 || c.Transfer.TMax != 0.75 || c.Logging.MaxSize != 10 {
		t.Errorf("bad decoded values: %+v %+v", c.Transfer, c.Logging)
	}
	if !c.Run.PrintBlocks || c.Run.Workers != 3 {
		t.Errorf("bad run table: %+v", c.Run)
	}

	s, err := c.Validate()
	if err != nil {
		t.Fatalf("config should validate: %v", err)
	}
	if s.DataType != subvol.T_float32 || s.Format != indexfile.Binary || s.Compress != subvol.Zstd {
		t.Errorf("bad settings: %s %s %s", s.DataType, s.Format, s.Compress)
	}
	if s.Grid.BlockDims != (subvol.Point3d{16, 8, 8}) {
		t.Errorf("bad block dims %s", s.Grid.BlockDims)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, []byte("[volume\nraw = 3\n"))
	if _, err := LoadConfig(bad); !errors.Is(err, subvol.ErrConfig) {
		t.Errorf("expected config error for bad toml, got %v", err)
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); !errors.Is(err, subvol.ErrConfig) {
		t.Errorf("expected config error for missing file, got %v", err)
	}
}

func TestValidateFormatFromPath(t *testing.T) {
	tests := []struct {
		path   string
		format string
		want   indexfile.Format
	}{
		{"index.bin", "", indexfile.Binary},
		{"index.txt", "", indexfile.ASCII},
		{"index.json", "", indexfile.JSON},
		{"index", "", indexfile.JSON},
		{"index.bin", "json", indexfile.JSON},
	}
	for _, tc := range tests {
		c, dir := testRun(t)
		c.Output.Path = filepath.Join(dir, tc.path)
		c.Output.Format = tc.format
		s, err := c.Validate()
		if err != nil {
			t.Fatalf("%s: %v", tc.path, err)
		}
		if s.Format != tc.want {
			t.Errorf("output %q with format %q: got %s, expected %s", tc.path, tc.format, s.Format, tc.want)
		}
	}
}

func TestValidateErrors(t *testing.T) {
	tests := map[string]func(c *Config){
		"zero block count":   func(c *Config) { c.Blocks.Counts = []int32{0, 1, 1} },
		"block count > dim":  func(c *Config) { c.Blocks.Counts = []int32{9, 1, 1} },
		"two block counts":   func(c *Config) { c.Blocks.Counts = []int32{2, 2} },
		"zero dims":          func(c *Config) { c.Volume.Dims = []int32{8, 0, 8} },
		"no raw":             func(c *Config) { c.Volume.Raw = "" },
		"no transfer":        func(c *Config) { c.Transfer.Path = "" },
		"no output":          func(c *Config) { c.Output.Path = "" },
		"no dtype":           func(c *Config) { c.Volume.DataType = "" },
		"unknown dtype":      func(c *Config) { c.Volume.DataType = "complex64" },
		"unknown format":     func(c *Config) { c.Output.Format = "yaml" },
		"unknown compressor": func(c *Config) { c.Output.Compression = "lz4" },
		"tmin above tmax":    func(c *Config) { c.Transfer.TMin = 2 },
		"negative workers":   func(c *Config) { c.Run.Workers = -1 },
	}
	for name, mutate := range tests {
		c, _ := testRun(t)
		mutate(c)
		if _, err := c.Validate(); !errors.Is(err, subvol.ErrConfig) {
			t.Errorf("%s: expected config error, got %v", name, err)
		}
	}
}

func TestRun(t *testing.T) {
	c, dir := testRun(t)
	c.Output.Arrow = filepath.Join(dir, "ramp.arrow")
	c.Run.Partitions = 5
	idx, err := Run(context.Background(), c)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if idx.Stats.Min != 0 || idx.Stats.Max != 511 || idx.Stats.Total != 511*512/2 {
		t.Errorf("bad stats %+v", idx.Stats)
	}
	if idx.DataType != subvol.T_uint16 || idx.TransferFunction != "identity.1dt" || idx.Volume.Name != "ramp.raw" {
		t.Errorf("bad index sources: %s %s %s", idx.DataType, idx.TransferFunction, idx.Volume.Name)
	}

	got, err := indexfile.Read(context.Background(), c.Output.Path)
	if err != nil {
		t.Fatalf("unable to read written index: %v", err)
	}
	rel := got.Relevance()
	if len(rel) != 8 {
		t.Fatalf("expected 8 blocks, got %d", len(rel))
	}
	for i := 1; i < len(rel); i++ {
		if rel[i] <= rel[i-1] {
			t.Errorf("relevance should increase with block index: %v", rel)
			break
		}
	}
	if _, err := os.Stat(c.Output.Arrow); err != nil {
		t.Errorf("expected arrow export: %v", err)
	}
}

func TestRunDescriptor(t *testing.T) {
	c, dir := testRun(t)
	dat := filepath.Join(dir, "ramp.dat")
	writeFile(t, dat, []byte("ObjectFileName: ramp.raw\nResolution: 8 8 8\nFormat: USHORT\n"))
	c.Volume.Raw = ""
	c.Volume.DataType = ""
	c.Volume.Dims = nil
	c.Volume.Dat = dat
	c.Output.Path = filepath.Join(dir, "ramp.bin")
	c.Output.Format = "binary"
	c.Output.Compression = "snappy"

	idx, err := Run(context.Background(), c)
	if err != nil {
		t.Fatalf("run from descriptor failed: %v", err)
	}
	if idx.Volume.VoxDims != (subvol.Point3d{8, 8, 8}) || idx.DataType != subvol.T_uint16 {
		t.Errorf("descriptor values not applied: %s %s", idx.Volume.VoxDims, idx.DataType)
	}
	if _, err := indexfile.Read(context.Background(), c.Output.Path); err != nil {
		t.Errorf("unable to read binary index: %v", err)
	}
}

func TestRunFailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config, dir string)
		target error
	}{
		{"short raw file", func(c *Config, dir string) { c.Volume.Dims = []int32{8, 8, 9} }, subvol.ErrIO},
		{"missing raw file", func(c *Config, dir string) { c.Volume.Raw = filepath.Join(dir, "nope.raw") }, subvol.ErrIO},
		{"one point transfer function", func(c *Config, dir string) {
			writeFile(t, c.Transfer.Path, []byte("1\n0.5 0.5\n"))
		}, subvol.ErrFormat},
		{"block count exceeds dims", func(c *Config, dir string) { c.Blocks.Counts = []int32{2, 2, 16} }, subvol.ErrConfig},
		{"unwritable arrow export", func(c *Config, dir string) {
			c.Output.Arrow = filepath.Join(dir, "no", "such", "dir", "blocks.arrow")
		}, subvol.ErrIO},
	}
	for _, tc := range tests {
		c, dir := testRun(t)
		tc.mutate(c, dir)
		if _, err := Run(context.Background(), c); !errors.Is(err, tc.target) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.target, err)
		}
		if _, err := os.Stat(c.Output.Path); !os.IsNotExist(err) {
			t.Errorf("%s: index should not be written", tc.name)
		}
	}
}

func TestRunUnwritableOutput(t *testing.T) {
	c, dir := testRun(t)
	c.Output.Path = filepath.Join(dir, "no", "such", "dir", "index.json")
	if _, err := Run(context.Background(), c); !errors.Is(err, subvol.ErrIO) {
		t.Fatalf("expected i/o error, got %v", err)
	}
	if _, err := os.Stat(c.Output.Path); !os.IsNotExist(err) {
		t.Errorf("index should not exist")
	}
}
