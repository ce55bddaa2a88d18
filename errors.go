// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package schismgrid

import (
	"errors"

	"github.com/2dChan/schismgrid/export"
	"github.com/2dChan/schismgrid/field"
	"github.com/2dChan/schismgrid/planar"
	"github.com/2dChan/schismgrid/trimesh"
)

// Error kinds reported by the package and its subpackages. Use errors.Is
// to test for them.
var (
	ErrInvalidFace         = errors.New("schismgrid: invalid face connectivity")
	ErrUnsupportedTopology = trimesh.ErrUnsupportedTopology
	ErrInvalidGeometry     = planar.ErrInvalidGeometry
	ErrVariableNotFound    = field.ErrVariableNotFound
	ErrOutOfRange          = field.ErrOutOfRange
	ErrIO                  = export.ErrIO
	ErrUnsupportedFormat   = export.ErrUnsupportedFormat
)
