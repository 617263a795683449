// Command-line interface to the volume block relevance preprocessor.
// Builds block relevance indices from raw volumes and inspects existing indices.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/janelia-flyem/subvol/indexfile"
	"github.com/janelia-flyem/subvol/pipeline"
	"github.com/janelia-flyem/subvol/subvol"
)

// Version of the subvol tool.
const Version = "0.9.0"

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// TOML configuration file.  Flags override its settings.
	configFile = flag.String("config", "", "")

	rawFile = flag.String("raw", "", "")
	datFile = flag.String("dat", "", "")
	outFile = flag.String("out", "", "")
	tfFile  = flag.String("tf", "", "")
	dtype   = flag.String("dtype", "", "")

	bx = flag.Int("bx", 1, "")
	by = flag.Int("by", 1, "")
	bz = flag.Int("bz", 1, "")

	vx = flag.Int("vx", 1, "")
	vy = flag.Int("vy", 1, "")
	vz = flag.Int("vz", 1, "")

	outFormat   = flag.String("format", "", "")
	compression = flag.String("compress", "", "")
	arrowFile   = flag.String("arrow", "", "")

	tmin = flag.Float64("tmin", 0, "")
	tmax = flag.Float64("tmax", 1, "")

	workers     = flag.Int("workers", 0, "")
	partitions  = flag.Int("partitions", 0, "")
	printBlocks = flag.Bool("print-blocks", false, "")

	logFile = flag.String("logfile", "", "")
)

const helpMessage = `
subvol computes per-block relevance of a raw volume under a transfer function and
writes an index used by out-of-core volume renderers.

Usage: subvol [options] <command>

      -config     =string   TOML configuration file.  Flags override its settings.
      -raw        =string   Raw volume file (x fastest, little-endian, no header).
      -dat        =string   .dat descriptor giving raw file, dims and element type.
      -dtype      =string   Element type: uint8, int8, uint16, int16, uint32, int32,
                            float32, float64 (or uchar, ushort, float, double, ...).
      -vx, -vy, -vz =number Volume dims in voxels.
      -bx, -by, -bz =number Blocks along each axis.
      -tf         =string   Transfer function file.
      -out        =string   Output index path or bucket URL (gs://, s3://, file://).
      -format     =string   Index format: json, binary or ascii.  Defaults from the
                            -out extension (.bin binary, .txt ascii, else json).
      -compress   =string   Binary index compression: none, snappy, zstd or gzip.
      -arrow      =string   Also export the block table as Arrow IPC to this path.
      -tmin       =number   Blocks with relevance below tmin are marked empty.
      -tmax       =number   Blocks with relevance above tmax are marked empty.
      -workers    =number   Number of goroutines sweeping the volume.
      -partitions =number   Number of contiguous voxel ranges per pass.
      -print-blocks (flag)  Print each block record after generating.
      -logfile    =string   Write log messages to this rotating log file.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	generate               Build an index file.
	read <index>           Decode an index and print it as ascii (or -format json),
	                       or convert it to -out.
	about                  Print version information.

Exit status is 2 for configuration errors, 3 for malformed input, 4 for i/o errors
and 1 for anything else.
`

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = func() {
		fmt.Print(helpMessage)
	}
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}
	if *runVerbose {
		subvol.SetLogMode(subvol.DebugMode)
	}

	err := DoCommand(flag.Args())
	subvol.Shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, subvol.ErrConfig):
		return 2
	case errors.Is(err, subvol.ErrFormat):
		return 3
	case errors.Is(err, subvol.ErrIO):
		return 4
	}
	return 1
}

// DoCommand serves as a switchboard for commands.
func DoCommand(args []string) error {
	switch args[0] {
	case "generate":
		return DoGenerate()
	case "read":
		if len(args) < 2 {
			return fmt.Errorf("read command must be followed by the path to an index")
		}
		return DoRead(args[1])
	case "about":
		fmt.Printf("subvol %s\n", Version)
		fmt.Printf("index format %s\n", indexfile.Version)
		fmt.Printf("%s on %s/%s with %d CPUs\n", runtime.Version(), runtime.GOOS, runtime.GOARCH, subvol.NumCPU)
		return nil
	}
	return fmt.Errorf("unknown command %q; try 'subvol help'", args[0])
}

// loadConfig builds the run configuration from any config file and the flags that were
// explicitly set on the command line.
func loadConfig() (*pipeline.Config, error) {
	c := pipeline.DefaultConfig()
	if *configFile != "" {
		var err error
		if c, err = pipeline.LoadConfig(*configFile); err != nil {
			return nil, err
		}
	}
	var flagErr error
	toInt32 := func(name string, v int) (int32, bool) {
		if v > math.MaxInt32 || v < math.MinInt32 {
			if flagErr == nil {
				flagErr = &subvol.ConfigError{Field: name, Value: v, Msg: "out of range"}
			}
			return 0, false
		}
		return int32(v), true
	}
	setCount := func(i int, name string, v int) {
		if len(c.Blocks.Counts) != 3 {
			c.Blocks.Counts = []int32{1, 1, 1}
		}
		if n, ok := toInt32(name, v); ok {
			c.Blocks.Counts[i] = n
		}
	}
	setDim := func(i int, name string, v int) {
		if len(c.Volume.Dims) != 3 {
			c.Volume.Dims = []int32{1, 1, 1}
		}
		if n, ok := toInt32(name, v); ok {
			c.Volume.Dims[i] = n
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "raw":
			c.Volume.Raw = *rawFile
		case "dat":
			c.Volume.Dat = *datFile
		case "dtype":
			c.Volume.DataType = *dtype
		case "out":
			c.Output.Path = *outFile
		case "tf":
			c.Transfer.Path = *tfFile
		case "bx":
			setCount(0, f.Name, *bx)
		case "by":
			setCount(1, f.Name, *by)
		case "bz":
			setCount(2, f.Name, *bz)
		case "vx":
			setDim(0, f.Name, *vx)
		case "vy":
			setDim(1, f.Name, *vy)
		case "vz":
			setDim(2, f.Name, *vz)
		case "format":
			c.Output.Format = *outFormat
		case "compress":
			c.Output.Compression = *compression
		case "arrow":
			c.Output.Arrow = *arrowFile
		case "tmin":
			c.Transfer.TMin = *tmin
		case "tmax":
			c.Transfer.TMax = *tmax
		case "workers":
			c.Run.Workers = *workers
		case "partitions":
			c.Run.Partitions = *partitions
		case "print-blocks":
			c.Run.PrintBlocks = *printBlocks
		case "logfile":
			c.Logging.Logfile = *logFile
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}
	return c, nil
}

// DoGenerate performs the "generate" command, building an index from a raw volume.
func DoGenerate() error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	c.Logging.SetLogger()
	idx, err := pipeline.Run(context.Background(), c)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote index of %s blocks to %s\n", idx.NumBlocks, c.Output.Path)
	if c.Run.PrintBlocks {
		for _, b := range idx.Blocks {
			fmt.Println(b)
		}
	}
	return nil
}

// DoRead performs the "read" command, decoding an existing index.  With -out the index
// is rewritten in the requested format, otherwise it is printed.
func DoRead(src string) error {
	ctx := context.Background()
	idx, err := indexfile.Read(ctx, src)
	if err != nil {
		return err
	}
	format := indexfile.ASCII
	if *outFile != "" {
		format = indexfile.FormatFromPath(*outFile)
	}
	if *outFormat != "" {
		if format, err = indexfile.ParseFormat(*outFormat); err != nil {
			return err
		}
	}
	compress, err := subvol.ParseCompression(*compression)
	if err != nil {
		return err
	}
	if *outFile != "" {
		return indexfile.Write(ctx, idx, *outFile, format, compress)
	}
	if format == indexfile.Binary {
		return &subvol.ConfigError{Field: "format", Value: *outFormat, Msg: "binary output needs -out"}
	}
	data, err := indexfile.Encode(idx, format, compress)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
