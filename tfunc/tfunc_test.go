package tfunc

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/janelia-flyem/subvol/subvol"
)

func writeTF(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tf.1dt")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("unable to write transfer function: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTF(t, "4\n0.0 0.0\n0.25 0.1\n0.5 0.9\n1.0 1.0\n\n")
	tf, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading transfer function: %v", err)
	}
	if tf.Len() != 4 {
		t.Errorf("expected 4 control points, got %d", tf.Len())
	}
	if tf.Name() != "tf.1dt" {
		t.Errorf("expected name tf.1dt, got %q", tf.Name())
	}
	pts := tf.Points()
	if pts[2] != (Point{0.5, 0.9}) {
		t.Errorf("bad third control point: %v", pts[2])
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     string
	}{
		{"single point", "1\n0.5 1.0\n", "at least 2 control points"},
		{"empty", "0\n", "at least 2 control points"},
		{"descending", "3\n0.0 0.0\n0.6 0.5\n0.4 1.0\n", "below previous"},
		{"duplicate x", "3\n0.0 0.0\n0.5 0.5\n0.5 1.0\n", "zero-length segment"},
		{"bad number", "2\n0.0 0.0\nabc 1.0\n", "bad x value"},
		{"one column", "2\n0.0 0.0\n1.0\n", "expected"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTF(t, tc.contents))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, subvol.ErrFormat) {
				t.Errorf("expected format error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %q", tc.want, err.Error())
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.1dt"))
	if !errors.Is(err, subvol.ErrIO) {
		t.Fatalf("expected i/o error for missing file, got %v", err)
	}
}

func TestEvaluateEndpoints(t *testing.T) {
	sets := [][]Point{
		{{0, 0.2}, {1, 0.7}},
		{{0, 0}, {0.3, 0.9}, {1, 0.1}},
		{{0, 0.33}, {0.1, 0.5}, {0.2, 0.1}, {0.7, 0.8}, {0.9, 0.05}, {1, 0.61}},
	}
	for _, pts := range sets {
		tf, err := New(pts)
		if err != nil {
			t.Fatalf("bad transfer function %v: %v", pts, err)
		}
		if got := tf.Evaluate(0); got != pts[0].Y {
			t.Errorf("Evaluate(0) = %v, expected %v", got, pts[0].Y)
		}
		if got := tf.Evaluate(1); got != pts[len(pts)-1].Y {
			t.Errorf("Evaluate(1) = %v, expected %v", got, pts[len(pts)-1].Y)
		}
	}
}

func TestEvaluateIdentity(t *testing.T) {
	tf, err := New([]Point{{0, 0}, {1, 1}})
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range []float64{0, 0.1, 0.25, 0.5, 0.77, 1} {
		if got := tf.Evaluate(x); math.Abs(got-x) > 1e-12 {
			t.Errorf("identity Evaluate(%v) = %v", x, got)
		}
	}
}

func TestEvaluateBracketRule(t *testing.T) {
	// Five evenly spaced points: idx = round(4x).
	tf, err := New([]Point{{0, 0}, {0.25, 1}, {0.5, 0}, {0.75, 1}, {1, 0}})
	if err != nil {
		t.Fatal(err)
	}
	// x = 0.3 rounds to idx 1, so the segment (0,1) is used and extrapolates past 0.25.
	if got, want := tf.Evaluate(0.3), 1.2; math.Abs(got-want) > 1e-12 {
		t.Errorf("Evaluate(0.3) = %v, expected %v", got, want)
	}
	// x = 0.4 rounds to idx 2, so the segment (1,2) is used.
	if got, want := tf.Evaluate(0.4), 0.4; math.Abs(got-want) > 1e-12 {
		t.Errorf("Evaluate(0.4) = %v, expected %v", got, want)
	}
	// x = 0.1 rounds to idx 0 which selects the first segment.
	if got, want := tf.Evaluate(0.1), 0.4; math.Abs(got-want) > 1e-12 {
		t.Errorf("Evaluate(0.1) = %v, expected %v", got, want)
	}
	// x beyond 1 rounds past the last index and uses the final segment.
	if got, want := tf.Evaluate(1.2), -0.8; math.Abs(got-want) > 1e-12 {
		t.Errorf("Evaluate(1.2) = %v, expected %v", got, want)
	}
}

func TestParse(t *testing.T) {
	tf, err := Parse(strings.NewReader("header line\n0 0\n0.5 1 extra\n1 0\n"), "inline")
	if err != nil {
		t.Fatal(err)
	}
	if tf.Name() != "inline" || tf.Len() != 3 {
		t.Errorf("unexpected transfer function %q with %d points", tf.Name(), tf.Len())
	}
}
