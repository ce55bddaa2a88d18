// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/2dChan/schismgrid"
	"github.com/2dChan/schismgrid/field"
	"github.com/2dChan/schismgrid/meshio"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds the state shared by the subcommands.
type app struct {
	cfg *viper.Viper
	log *logrus.Logger

	// files opened while loading the grid, closed after the command.
	files []*os.File
}

func newApp() *app {
	return &app{cfg: viper.New(), log: logrus.New()}
}

// execute runs root and closes the files opened by the command, whether
// or not it succeeded.
func (a *app) execute(root *cobra.Command) error {
	defer a.close()
	return root.Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "schismgrid",
		Short:         "Query SCHISM unstructured meshes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "YAML configuration file")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("hgrid", "", "ASCII hgrid.gr3 mesh file")
	pf.String("ugrid", "", "SCHISM UGRID output file holding the mesh, e.g. out2d_1.nc")
	pf.StringSlice("data", nil, "further output files whose variables are attached, in time order")
	pf.Float64("eps", 0, "point location tolerance; 0 selects the default")
	for _, name := range []string{"log-level", "hgrid", "ugrid", "data", "eps"} {
		_ = a.cfg.BindPFlag(strings.ReplaceAll(name, "-", "_"), pf.Lookup(name))
	}
	a.cfg.SetEnvPrefix("SCHISMGRID")
	a.cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.cfg.AutomaticEnv()

	root.AddCommand(
		newLocateCmd(a),
		newSubsetCmd(a),
		newDepthAvgCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	a.log.SetOutput(cmd.ErrOrStderr())
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.cfg.SetConfigFile(path)
		if err := a.cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	level, err := logrus.ParseLevel(a.cfg.GetString("log_level"))
	if err != nil {
		return err
	}
	a.log.SetLevel(level)
	return nil
}

func (a *app) close() {
	for _, f := range a.files {
		f.Close()
	}
	a.files = nil
}

// loadGrid reads the mesh selected by the hgrid or ugrid setting and
// attaches the variables of the data files.
func (a *app) loadGrid() (*schismgrid.Grid, error) {
	start := time.Now()
	var opts []schismgrid.Option
	if eps := a.cfg.GetFloat64("eps"); eps != 0 {
		opts = append(opts, schismgrid.WithEps(eps))
	}

	var g *schismgrid.Grid
	hgrid, ugrid := a.cfg.GetString("hgrid"), a.cfg.GetString("ugrid")
	switch {
	case hgrid != "" && ugrid != "":
		return nil, errors.New("hgrid and ugrid are mutually exclusive")
	case hgrid != "":
		f, err := os.Open(hgrid)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if g, err = meshio.ReadGR3(f, opts...); err != nil {
			return nil, fmt.Errorf("reading %s: %w", hgrid, err)
		}
	case ugrid != "":
		nc, err := a.openNetCDF(ugrid)
		if err != nil {
			return nil, err
		}
		if g, err = meshio.ReadUGRID(nc, opts...); err != nil {
			return nil, fmt.Errorf("reading %s: %w", ugrid, err)
		}
	default:
		return nil, errors.New("no mesh: set hgrid or ugrid")
	}

	if data := a.cfg.GetStringSlice("data"); len(data) > 0 {
		files := make([]*field.NetCDF, len(data))
		for i, path := range data {
			nc, err := a.openNetCDF(path)
			if err != nil {
				return nil, err
			}
			files[i] = nc
		}
		if err := meshio.AttachFields(g, files...); err != nil {
			return nil, err
		}
	}

	a.log.WithFields(logrus.Fields{
		"hgrid":     hgrid,
		"ugrid":     ugrid,
		"nodes":     g.NumNodes(),
		"faces":     g.NumFaces(),
		"variables": len(g.Variables()),
		"elapsed":   time.Since(start),
	}).Info("loaded grid")
	return g, nil
}

func (a *app) openNetCDF(path string) (*field.NetCDF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	a.files = append(a.files, f)
	nc, err := field.OpenNetCDF(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return nc, nil
}
