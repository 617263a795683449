package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/subvol/analysis"
	"github.com/janelia-flyem/subvol/indexfile"
	"github.com/janelia-flyem/subvol/subvol"
	"github.com/janelia-flyem/subvol/volume"
)

// Config holds every setting of a run.  It is usually decoded from a TOML file and then
// overridden by command-line flags:
//
//	[volume]
//	raw = "data/skull.raw"
//	dtype = "uint8"
//	dims = [256, 256, 256]
//
//	[blocks]
//	counts = [16, 16, 16]
//
//	[transfer]
//	path = "tf/skull.1dt"
//	tmin = 0.0
//	tmax = 1.0
//
//	[output]
//	path = "skull_index.json"
//	format = "json"
//
//	[run]
//	workers = 8
//
//	[logging]
//	logfile = "/tmp/subvol.log"
//	max_log_size = 500 # MB
//	max_log_age = 30   # days
type Config struct {
	Volume   VolumeConfig
	Blocks   BlocksConfig
	Transfer TransferConfig
	Output   OutputConfig
	Run      RunConfig
	Logging  subvol.LogConfig
}

type VolumeConfig struct {
	// Raw is the path of the raw volume file.
	Raw string

	// Dat is an optional .dat descriptor supplying Raw, DataType and Dims when they are
	// not set explicitly.
	Dat string

	DataType string `toml:"dtype"`
	Dims     []int32
}

type BlocksConfig struct {
	Counts []int32
}

type TransferConfig struct {
	Path string

	// Blocks with relevance outside [TMin, TMax] are marked empty.
	TMin float64
	TMax float64
}

type OutputConfig struct {
	Path string

	// Format is json, binary or ascii.  When empty it follows the extension of Path.
	Format      string
	Compression string

	// Arrow is an optional path for an Arrow IPC export of the block table.
	Arrow string
}

type RunConfig struct {
	Workers     int
	Partitions  int
	PrintBlocks bool `toml:"print_blocks"`
}

// DefaultConfig returns the configuration used when no file or flag sets a value.
func DefaultConfig() *Config {
	return &Config{
		Blocks:   BlocksConfig{Counts: []int32{1, 1, 1}},
		Transfer: TransferConfig{TMin: 0, TMax: 1},
		Output:   OutputConfig{Compression: "none"},
	}
}

// LoadConfig returns the default configuration overlaid with the TOML file at filename.
// Relative paths in the file are taken relative to the file's directory.
func LoadConfig(filename string) (*Config, error) {
	c := DefaultConfig()
	if _, err := toml.DecodeFile(filename, c); err != nil {
		return nil, &subvol.ConfigError{Field: "config file", Value: filename, Msg: err.Error()}
	}
	if err := c.convertPathsToAbsolute(filename); err != nil {
		return nil, err
	}
	subvol.Debugf("Loaded configuration %s: %+v\n", filename, *c)
	return c, nil
}

// convertPathsToAbsolute rewrites relative paths in place as absolute paths, assuming
// they were given relative to the directory of the config file.
func (c *Config) convertPathsToAbsolute(configPath string) error {
	configDir := filepath.Dir(configPath)
	paths := map[string]*string{
		"volume.raw":      &c.Volume.Raw,
		"volume.dat":      &c.Volume.Dat,
		"transfer.path":   &c.Transfer.Path,
		"output.arrow":    &c.Output.Arrow,
		"logging.logfile": &c.Logging.Logfile,
	}
	if !indexfile.IsBucketURL(c.Output.Path) {
		paths["output.path"] = &c.Output.Path
	}
	for name, p := range paths {
		if *p == "" || indexfile.IsBucketURL(*p) {
			continue
		}
		abs, err := subvol.ConvertToAbsolute(*p, configDir)
		if err != nil {
			return &subvol.ConfigError{Field: name, Value: *p, Msg: fmt.Sprintf("cannot make absolute: %v", err)}
		}
		*p = abs
	}
	return nil
}

// ApplyDescriptor fills the raw path, element type and dims from the .dat descriptor
// if one is configured.  Values already set are kept.
func (c *Config) ApplyDescriptor() error {
	if c.Volume.Dat == "" {
		return nil
	}
	d, err := volume.ReadDescriptor(c.Volume.Dat)
	if err != nil {
		return err
	}
	if c.Volume.Raw == "" {
		c.Volume.Raw = d.RawPath
	}
	if len(c.Volume.Dims) == 0 {
		c.Volume.Dims = []int32{d.Dims[0], d.Dims[1], d.Dims[2]}
	}
	if c.Volume.DataType == "" {
		c.Volume.DataType = d.DataType.String()
	}
	subvol.Infof("Using volume %s %s %s from descriptor %s\n", d.RawPath, d.DataType, d.Dims, c.Volume.Dat)
	return nil
}

// Settings are the validated, typed values of a Config.
type Settings struct {
	Raw      string
	DataType subvol.DataType
	Grid     analysis.BlockGrid
	Transfer string
	TMin     float64
	TMax     float64
	Output   string
	Format   indexfile.Format
	Compress subvol.Compression
	Arrow    string
	Analysis analysis.Options
}

func point3(field string, v []int32) (subvol.Point3d, error) {
	if len(v) != 3 {
		return subvol.Point3d{}, &subvol.ConfigError{Field: field, Value: v, Msg: "need exactly 3 values"}
	}
	return subvol.Point3d{v[0], v[1], v[2]}, nil
}

// Validate checks every setting and returns their typed values.  All failures are
// ConfigErrors.
func (c *Config) Validate() (*Settings, error) {
	if c.Volume.Raw == "" {
		return nil, &subvol.ConfigError{Field: "raw volume", Value: `""`, Msg: "a raw file or .dat descriptor is required"}
	}
	if c.Transfer.Path == "" {
		return nil, &subvol.ConfigError{Field: "transfer function", Value: `""`, Msg: "a transfer function file is required"}
	}
	if c.Output.Path == "" {
		return nil, &subvol.ConfigError{Field: "output path", Value: `""`, Msg: "an output path is required"}
	}
	if c.Volume.DataType == "" {
		return nil, &subvol.ConfigError{Field: "dtype", Value: `""`, Msg: "an element type is required"}
	}
	dtype, err := subvol.ParseDataType(c.Volume.DataType)
	if err != nil {
		return nil, err
	}
	dims, err := point3("volume dims", c.Volume.Dims)
	if err != nil {
		return nil, err
	}
	counts, err := point3("block counts", c.Blocks.Counts)
	if err != nil {
		return nil, err
	}
	grid, err := analysis.NewBlockGrid(dims, subvol.ChunkPoint3d(counts))
	if err != nil {
		return nil, err
	}
	format := indexfile.FormatFromPath(c.Output.Path)
	if c.Output.Format != "" {
		if format, err = indexfile.ParseFormat(c.Output.Format); err != nil {
			return nil, err
		}
	}
	compress, err := subvol.ParseCompression(c.Output.Compression)
	if err != nil {
		return nil, err
	}
	if c.Transfer.TMin > c.Transfer.TMax {
		return nil, &subvol.ConfigError{Field: "tmin", Value: c.Transfer.TMin,
			Msg: fmt.Sprintf("exceeds tmax %g", c.Transfer.TMax)}
	}
	if c.Run.Workers < 0 {
		return nil, &subvol.ConfigError{Field: "workers", Value: c.Run.Workers, Msg: "must not be negative"}
	}
	if c.Run.Partitions < 0 {
		return nil, &subvol.ConfigError{Field: "partitions", Value: c.Run.Partitions, Msg: "must not be negative"}
	}
	return &Settings{
		Raw:      c.Volume.Raw,
		DataType: dtype,
		Grid:     grid,
		Transfer: c.Transfer.Path,
		TMin:     c.Transfer.TMin,
		TMax:     c.Transfer.TMax,
		Output:   c.Output.Path,
		Format:   format,
		Compress: compress,
		Arrow:    c.Output.Arrow,
		Analysis: analysis.Options{Workers: c.Run.Workers, Partitions: c.Run.Partitions},
	}, nil
}
