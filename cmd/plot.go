/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/notargets/gopda/fda"
	"github.com/notargets/gopda/utils"
)

// plotFit draws the samples of every curve with the fitted curve through
// them; the image format follows the file extension
func plotFit(fileName, title string, data *fda.SmoothingData, fit *fda.FD) (err error) {
	var (
		rng    = data.Basis.Range()
		fine   = utils.NewVector(401).Linspace(rng[0], rng[1]).Data()
		fitted utils.Matrix
	)
	if fitted, err = fit.Eval(fine, 0); err != nil {
		return
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	p.Y.Label.Text = "x(t)"
	for c := 0; c < data.NCurves(); c++ {
		var (
			samples = make(plotter.XYs, data.N())
			curve   = make(plotter.XYs, len(fine))
		)
		for i, t := range data.Times {
			samples[i].X, samples[i].Y = t, data.Y.At(i, c)
		}
		for i, t := range fine {
			curve[i].X, curve[i].Y = t, fitted.At(i, c)
		}
		if err = plotutil.AddScatters(p, fmt.Sprintf("data %d", c), samples); err != nil {
			return
		}
		if err = plotutil.AddLines(p, fmt.Sprintf("fit %d", c), curve); err != nil {
			return
		}
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, fileName)
}
