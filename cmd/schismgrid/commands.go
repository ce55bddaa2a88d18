// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/2dChan/schismgrid"
	"github.com/2dChan/schismgrid/export"
	"github.com/2dChan/schismgrid/field"
	"github.com/2dChan/schismgrid/planar"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/golang/geo/r2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

func newLocateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate X Y",
		Short: "Print the faces containing a point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("parsing x: %w", err)
			}
			y, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("parsing y: %w", err)
			}
			g, err := a.loadGrid()
			if err != nil {
				return err
			}
			faces, err := g.FacesAt(x, y)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "faces: %v\n", faces)

			name, _ := cmd.Flags().GetString("interpolate")
			if name == "" {
				return nil
			}
			src, err := g.Field(name)
			if err != nil {
				return err
			}
			if len(src.Shape()) != 1 {
				return fmt.Errorf("field %s is not static", name)
			}
			values, err := field.ReadAll(src)
			if err != nil {
				return err
			}
			v, err := g.Interpolate(x, y, values)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", name, v)
			return nil
		},
	}
	cmd.Flags().String("interpolate", "", "static nodal field to interpolate at the point")
	return cmd
}

func newSubsetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subset",
		Short: "Cut out the faces overlapping a polygon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ring, _ := cmd.Flags().GetString("polygon")
			shpPath, _ := cmd.Flags().GetString("polygon-shp")
			out, _ := cmd.Flags().GetString("out")

			var poly planar.Polygon
			var err error
			switch {
			case ring != "" && shpPath != "":
				return errors.New("polygon and polygon-shp are mutually exclusive")
			case ring != "":
				pts, err := parseRing(ring)
				if err != nil {
					return err
				}
				if poly, err = planar.NewPolygon(pts); err != nil {
					return err
				}
			case shpPath != "":
				if poly, err = readPolygon(shpPath); err != nil {
					return err
				}
			default:
				return errors.New("no polygon: set polygon or polygon-shp")
			}

			g, err := a.loadGrid()
			if err != nil {
				return err
			}
			sub, err := g.SubsetPolygon(poly)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "faces: %d\nnodes: %d\n", sub.NumFaces(), sub.NumNodes())
			if out == "" {
				return nil
			}
			ug, err := sub.UnstructuredGrid()
			if err != nil {
				return err
			}
			parents := make([]float64, len(sub.FaceParents))
			for i, f := range sub.FaceParents {
				parents[i] = float64(f)
			}
			ug.CellData["parent"] = parents
			return a.write(ug, out)
		},
	}
	cmd.Flags().String("polygon", "", `polygon vertices as "x,y x,y x,y ..."`)
	cmd.Flags().String("polygon-shp", "", "shapefile whose first polygon is used")
	cmd.Flags().String("out", "", "write the subset to a .vtu or .shp file")
	return cmd
}

func newDepthAvgCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depthavg VARIABLE",
		Short: "Average a layered variable over depth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variable := args[0]
			step, _ := cmd.Flags().GetInt("time")
			all, _ := cmd.Flags().GetBool("all")
			out, _ := cmd.Flags().GetString("out")
			if all && out != "" {
				return errors.New("all and out are mutually exclusive")
			}

			g, err := a.loadGrid()
			if err != nil {
				return err
			}
			if all {
				return g.DepthAverageAll(variable, func(t int, avg []float64) error {
					printSummary(cmd, t, avg)
					return nil
				})
			}

			avg, err := g.DepthAverage(variable, step)
			if err != nil {
				return err
			}
			printSummary(cmd, step, avg)
			if out == "" {
				return nil
			}
			ug, err := g.UnstructuredGrid()
			if err != nil {
				return err
			}
			ug.PointData[variable+"_depth_average"] = avg
			return a.write(ug, out)
		},
	}
	cmd.Flags().Int("time", 0, "time step to average")
	cmd.Flags().Bool("all", false, "summarize every time step")
	cmd.Flags().String("out", "", "write the averages as point data to a .vtu file")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export OUT",
		Short: "Write the mesh to a .vtu or .shp file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			g, err := a.loadGrid()
			if err != nil {
				return err
			}
			ug, err := g.UnstructuredGrid()
			if err != nil {
				return err
			}
			return a.write(ug, args[0])
		},
	}
}

func (a *app) write(ug *export.UnstructuredGrid, path string) error {
	if err := export.Write(ug, path, export.WithLogger(a.log)); err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{
		"path":  path,
		"cells": ug.NumCells(),
	}).Info("wrote grid")
	return nil
}

// printSummary prints the range and mean of the wet nodes of avg.
func printSummary(cmd *cobra.Command, t int, avg []float64) {
	wet := make([]float64, 0, len(avg))
	for _, v := range avg {
		if !math.IsNaN(v) {
			wet = append(wet, v)
		}
	}
	w := cmd.OutOrStdout()
	if len(wet) == 0 {
		fmt.Fprintf(w, "t=%d wet=0\n", t)
		return
	}
	fmt.Fprintf(w, "t=%d wet=%d min=%g mean=%g max=%g\n",
		t, len(wet), floats.Min(wet), floats.Sum(wet)/float64(len(wet)), floats.Max(wet))
}

// parseRing parses "x,y x,y ..." with vertices separated by blanks or
// semicolons.
func parseRing(s string) ([]r2.Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ';' || r == '\t' })
	ring := make([]r2.Point, 0, len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("vertex %q is not x,y", f)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("vertex %q: %w", f, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("vertex %q: %w", f, err)
		}
		ring = append(ring, r2.Point{X: x, Y: y})
	}
	return ring, nil
}

// readPolygon returns the first polygon of a shapefile.
func readPolygon(path string) (planar.Polygon, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return planar.Polygon{}, err
	}
	defer dec.Close()

	for {
		g, _, more := dec.DecodeRowFields()
		if !more {
			break
		}
		p, ok := g.(geom.Polygonal)
		if !ok || len(p.Polygons()) == 0 {
			continue
		}
		return planar.FromGeom(p.Polygons()[0])
	}
	if err := dec.Error(); err != nil {
		return planar.Polygon{}, err
	}
	return planar.Polygon{}, fmt.Errorf("%w: %s has no polygon", schismgrid.ErrInvalidGeometry, path)
}
