// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package export

import (
	"bufio"
	"encoding/xml"
	"io"
	"strconv"
)

// FaceNodesArray is the cell data array holding the fill-padded
// connectivity of every cell.
const FaceNodesArray = "face_nodes"

// vtuWriter emits a VTK XML unstructured grid one token at a time so that
// no array is formatted in full before it is written.
type vtuWriter struct {
	enc *xml.Encoder
	err error
}

func writeVTU(w io.Writer, ug *UnstructuredGrid) error {
	bw := bufio.NewWriter(w)
	if _, err := io.WriteString(bw, xml.Header); err != nil {
		return err
	}
	vw := &vtuWriter{enc: xml.NewEncoder(bw)}
	vw.enc.Indent("", "  ")

	vw.start("VTKFile",
		"type", "UnstructuredGrid",
		"version", "1.0",
		"byte_order", "LittleEndian",
		"header_type", "UInt64")
	vw.start("UnstructuredGrid")
	vw.start("Piece",
		"NumberOfPoints", strconv.Itoa(len(ug.Points)),
		"NumberOfCells", strconv.Itoa(ug.NumCells()))

	vw.start("PointData")
	for _, name := range sortedKeys(ug.PointData) {
		vw.floats(name, 1, ug.PointData[name])
	}
	vw.end("PointData")

	vw.start("CellData")
	vw.ints(FaceNodesArray, ug.Width, ug.Connectivity)
	for _, name := range sortedKeys(ug.CellData) {
		vw.floats(name, 1, ug.CellData[name])
	}
	vw.end("CellData")

	points := make([]float64, 0, 3*len(ug.Points))
	for _, p := range ug.Points {
		points = append(points, p.X, p.Y, p.Z)
	}
	vw.start("Points")
	vw.floats("Points", 3, points)
	vw.end("Points")

	packed := make([]int, 0, len(ug.Connectivity))
	for i := range ug.NumCells() {
		packed = append(packed, ug.Cell(i)...)
	}
	types := ug.CellTypes()
	vw.start("Cells")
	vw.ints("connectivity", 1, packed)
	vw.ints("offsets", 1, ug.Offsets())
	vw.array("types", "UInt8", 1, len(types), func(i int) string {
		return strconv.Itoa(int(types[i]))
	})
	vw.end("Cells")

	vw.end("Piece")
	vw.end("UnstructuredGrid")
	vw.end("VTKFile")

	if vw.err != nil {
		return vw.err
	}
	if err := vw.enc.Flush(); err != nil {
		return err
	}
	if _, err := io.WriteString(bw, "\n"); err != nil {
		return err
	}
	return bw.Flush()
}

func (vw *vtuWriter) token(t xml.Token) {
	if vw.err != nil {
		return
	}
	vw.err = vw.enc.EncodeToken(t)
}

// start opens element name with attributes given as key, value pairs.
func (vw *vtuWriter) start(name string, attrs ...string) {
	se := xml.StartElement{Name: xml.Name{Local: name}}
	for i := 0; i+1 < len(attrs); i += 2 {
		se.Attr = append(se.Attr, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	vw.token(se)
}

func (vw *vtuWriter) end(name string) {
	vw.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (vw *vtuWriter) floats(name string, components int, v []float64) {
	vw.array(name, "Float64", components, len(v), func(i int) string {
		return strconv.FormatFloat(v[i], 'g', -1, 64)
	})
}

func (vw *vtuWriter) ints(name string, components int, v []int) {
	vw.array(name, "Int64", components, len(v), func(i int) string {
		return strconv.Itoa(v[i])
	})
}

// array writes an ASCII DataArray of n values, one tuple per line.
func (vw *vtuWriter) array(name, typ string, components, n int, value func(int) string) {
	vw.start("DataArray",
		"type", typ,
		"Name", name,
		"NumberOfComponents", strconv.Itoa(components),
		"format", "ascii")
	buf := make([]byte, 0, 64)
	for i := range n {
		buf = buf[:0]
		if i%components == 0 {
			buf = append(buf, '\n')
		} else {
			buf = append(buf, ' ')
		}
		buf = append(buf, value(i)...)
		vw.token(xml.CharData(buf))
	}
	if n > 0 {
		vw.token(xml.CharData("\n"))
	}
	vw.end("DataArray")
}
