// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Command schismgrid queries SCHISM meshes from the command line.
package main

import (
	"github.com/sirupsen/logrus"
)

func main() {
	a := newApp()
	if err := a.execute(newRootCmd(a)); err != nil {
		logrus.WithError(err).Fatal("schismgrid failed")
	}
}
