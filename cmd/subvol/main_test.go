package main

import (
	"errors"
	"flag"
	"fmt"
	"testing"

	"github.com/janelia-flyem/subvol/subvol"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{&subvol.ConfigError{Field: "bx", Value: 0, Msg: "must be at least 1"}, 2},
		{&subvol.FormatError{Path: "tf.1dt", Msg: "need at least 2 control points"}, 3},
		{&subvol.IOError{Op: "open", Path: "vol.raw"}, 4},
		{fmt.Errorf("wrapped: %w", &subvol.IOError{Op: "write", Path: "out.json"}), 4},
		{fmt.Errorf("something else"), 1},
	}
	for _, tc := range tests {
		if got := exitCode(tc.err); got != tc.code {
			t.Errorf("exit code for %v = %d, expected %d", tc.err, got, tc.code)
		}
	}
}

func TestLoadConfigFlags(t *testing.T) {
	settings := map[string]string{
		"raw":   "vol.raw",
		"dtype": "uint16",
		"vx":    "64",
		"vz":    "16",
		"bx":    "4",
		"tf":    "tf.1dt",
		"out":   "index.bin",
		"tmax":  "0.5",
	}
	for name, value := range settings {
		if err := flag.CommandLine.Set(name, value); err != nil {
			t.Fatalf("unable to set -%s: %v", name, err)
		}
	}
	c, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if c.Volume.Raw != "vol.raw" || c.Volume.DataType != "uint16" || c.Transfer.Path != "tf.1dt" || c.Output.Path != "index.bin" {
		t.Errorf("string flags not applied: %+v", c)
	}
	if dims := c.Volume.Dims; len(dims) != 3 || dims[0] != 64 || dims[1] != 1 || dims[2] != 16 {
		t.Errorf("bad dims from flags: %v", dims)
	}
	if counts := c.Blocks.Counts; counts[0] != 4 || counts[1] != 1 || counts[2] != 1 {
		t.Errorf("bad block counts from flags: %v", counts)
	}
	if c.Transfer.TMax != 0.5 || c.Transfer.TMin != 0 {
		t.Errorf("bad thresholds: %g %g", c.Transfer.TMin, c.Transfer.TMax)
	}
}

func TestLoadConfigFlagRange(t *testing.T) {
	for _, name := range []string{"vx", "bz"} {
		if err := flag.CommandLine.Set(name, "4294967304"); err != nil {
			t.Fatalf("unable to set -%s: %v", name, err)
		}
		_, err := loadConfig()
		if !errors.Is(err, subvol.ErrConfig) {
			t.Errorf("-%s 4294967304: expected config error, got %v", name, err)
		}
		if err := flag.CommandLine.Set(name, "4"); err != nil {
			t.Fatal(err)
		}
	}
}
