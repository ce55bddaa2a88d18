package main

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const hgrid = `cli test mesh
3 6
1 0.0 0.0 5.0
2 1.0 0.0 4.5
3 2.0 0.0 4.0
4 0.0 1.0 3.5
5 1.0 1.0 3.0
6 2.0 1.0 2.5
1 4 1 2 5 4
2 3 2 3 6
3 3 6 5 2
`

func TestLocate(t *testing.T) {
	path := mustHgrid(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"shared edge", []string{"--hgrid", path, "locate", "1", "0.5"}, "faces: [0 2]\n"},
		{"outside", []string{"--hgrid", path, "locate", "5", "5"}, "faces: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("run(%v) error = %v, want nil", tt.args, err)
			}
			if out != tt.want {
				t.Errorf("run(%v) = %q, want %q", tt.args, out, tt.want)
			}
		})
	}
}

func TestLocate_Interpolate(t *testing.T) {
	out, err := run(t, "--hgrid", mustHgrid(t), "locate", "--interpolate", "depth", "0.5", "0.25")
	if err != nil {
		t.Fatalf("locate --interpolate error = %v, want nil", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[0] != "faces: [0]" {
		t.Fatalf("locate --interpolate = %q, want faces then depth", out)
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(lines[1], "depth: "), 64)
	if err != nil {
		t.Fatalf("parsing %q error = %v, want nil", lines[1], err)
	}
	// Depth is 5 - x/2 - 3y/2 over the whole mesh.
	if math.Abs(v-4.375) > 1e-9 {
		t.Errorf("interpolated depth = %v, want 4.375", v)
	}
}

func TestSubset(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "subset.shp")
	got, err := run(t, "--hgrid", mustHgrid(t), "subset", "--polygon", "0.1,0.1 0.4,0.1 0.4,0.4", "--out", out)
	if err != nil {
		t.Fatalf("subset error = %v, want nil", err)
	}
	if want := "faces: 1\nnodes: 4\n"; got != want {
		t.Errorf("subset = %q, want %q", got, want)
	}
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		p := filepath.Join(dir, "subset"+ext)
		if _, err := os.Stat(p); err != nil {
			t.Errorf("os.Stat(%q) error = %v, want nil", p, err)
		}
	}
}

func TestExport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mesh.vtu")
	if _, err := run(t, "--hgrid", mustHgrid(t), "export", out); err != nil {
		t.Fatalf("export error = %v, want nil", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("os.ReadFile(%q) error = %v, want nil", out, err)
	}
	if !bytes.Contains(b, []byte(`NumberOfCells="3"`)) {
		t.Errorf("%s does not declare 3 cells", out)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "schismgrid.yaml")
	if err := os.WriteFile(cfg, []byte("hgrid: "+mustHgrid(t)+"\nlog_level: warn\n"), 0o644); err != nil {
		t.Fatalf("os.WriteFile(%q) error = %v, want nil", cfg, err)
	}
	got, err := run(t, "--config", cfg, "locate", "1.5", "0.25")
	if err != nil {
		t.Fatalf("locate with config error = %v, want nil", err)
	}
	if want := "faces: [1]\n"; got != want {
		t.Errorf("locate with config = %q, want %q", got, want)
	}
}

func TestErrors(t *testing.T) {
	path := mustHgrid(t)
	tests := []struct {
		name string
		args []string
	}{
		{"no mesh", []string{"locate", "0", "0"}},
		{"both meshes", []string{"--hgrid", path, "--ugrid", path, "locate", "0", "0"}},
		{"missing mesh", []string{"--hgrid", filepath.Join(t.TempDir(), "none.gr3"), "locate", "0", "0"}},
		{"bad coordinate", []string{"--hgrid", path, "locate", "x", "0"}},
		{"bad log level", []string{"--hgrid", path, "--log-level", "loud", "locate", "0", "0"}},
		{"no polygon", []string{"--hgrid", path, "subset"}},
		{"bad vertex", []string{"--hgrid", path, "subset", "--polygon", "0,0 1 1,1"}},
		{"degenerate polygon", []string{"--hgrid", path, "subset", "--polygon", "0,0 1,1 2,2"}},
		{"not layered", []string{"--hgrid", path, "depthavg", "depth"}},
		{"unknown format", []string{"--hgrid", path, "export", filepath.Join(t.TempDir(), "mesh.obj")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Errorf("run(%v) error = nil, want non-nil", tt.args)
			}
		})
	}
}

func TestExecute_ClosesFilesOnError(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.nc")
	if err := os.WriteFile(bad, []byte("not netcdf"), 0o644); err != nil {
		t.Fatalf("os.WriteFile(%q) error = %v, want nil", bad, err)
	}
	a := newApp()
	cmd := newRootCmd(a)
	cmd.SetArgs([]string{"--hgrid", mustHgrid(t), "--data", bad, "locate", "0", "0"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	if err := a.execute(cmd); err == nil {
		t.Fatalf("a.execute(...) error = nil, want non-nil")
	}
	if len(a.files) != 0 {
		t.Errorf("len(a.files) = %d after a failed command, want 0", len(a.files))
	}
}

// Helpers

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, log bytes.Buffer
	a := newApp()
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&log)
	err := a.execute(cmd)
	return out.String(), err
}

func mustHgrid(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hgrid.gr3")
	if err := os.WriteFile(path, []byte(hgrid), 0o644); err != nil {
		t.Fatalf("os.WriteFile(%q) error = %v, want nil", path, err)
	}
	return path
}
