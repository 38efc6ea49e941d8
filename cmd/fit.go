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
	"math"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/gopda/InputParameters"
	"github.com/notargets/gopda/pda"
	"github.com/notargets/gopda/utils"
)

// FitCmd represents the fit command
var FitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Estimate the operator weights of a problem file",
	Long: `
Runs the parameter cascade for the problem described in a YAML file. With a
LambdaPath the estimate is repeated for each smoothing parameter, warm started
from the previous one, and the fit with the smallest GCV is reported.

gopda fit -I problem.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		fileName, _ := cmd.Flags().GetString("inputConditionsFile")
		pp, err := readProblem(fileName)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		verbose := viper.GetBool("verbose")
		if verbose {
			pp.Print()
		}
		var (
			cr *pda.CascadeResult
			o  *pda.Objective
		)
		if cr, o, err = fitProblem(pp, verbose); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		printFit(cr, o.Layout(), verbose)
		if plotFile, _ := cmd.Flags().GetString("plot"); len(plotFile) != 0 {
			if err = plotFit(plotFile, pp.Title, o.Data, cr.Result.Fd); err != nil {
				fmt.Printf("error: %s\n", err.Error())
				os.Exit(1)
			}
		}
		if verbose {
			fmt.Println(utils.GetMemUsage())
		}
	},
}

func init() {
	rootCmd.AddCommand(FitCmd)
	FitCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file describing the basis, operator and data")
	FitCmd.Flags().StringP("plot", "p", "", "write the data and fitted curves to an image file (.png, .svg, .pdf)")
}

func readProblem(fileName string) (pp *InputParameters.ProblemParameters, err error) {
	if len(fileName) == 0 {
		fmt.Printf("Example File:%s\n", InputParameters.ExampleFile)
		err = fmt.Errorf("must supply a problem file (-I, --inputConditionsFile)")
		return
	}
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	pp = &InputParameters.ProblemParameters{}
	if err = pp.Parse(data); err != nil {
		pp = nil
	}
	return
}

// fitProblem runs the cascade for every lambda of the problem and returns
// the fit with the smallest GCV
func fitProblem(pp *InputParameters.ProblemParameters, verbose bool) (cr *pda.CascadeResult, o *pda.Objective, err error) {
	var (
		lambdas = pp.Lambdas()
		c       *pda.Cascade
	)
	data, op, err := pp.Build()
	if err != nil {
		return
	}
	if o, err = pda.NewObjective(op, data, lambdas[0], pda.WithVerbose(verbose)); err != nil {
		return
	}
	if c, err = pp.Optimizer.Cascade(o); err != nil {
		return
	}
	if len(lambdas) == 1 {
		cr, err = c.Estimate(nil)
		return
	}
	var (
		path []pda.LambdaFit
		best int
	)
	if path, best, err = c.LambdaPath(lambdas); err != nil {
		return
	}
	if best < 0 {
		// no finite GCV, report the last fit
		best = len(path) - 1
	}
	cr = path[best].Fit
	return
}

func printFit(cr *pda.CascadeResult, layout *pda.Layout, verbose bool) {
	res := cr.Result
	fmt.Printf("Optimizer status: %v, %d function evaluations\n", cr.Status, cr.Stats.FuncEvaluations)
	if cr.OptErr != nil {
		fmt.Printf("Optimizer stopped early: %v\n", cr.OptErr)
	}
	for i, name := range layout.Names() {
		fmt.Printf("%10s = %14.8g\n", name, cr.Bvec[i])
	}
	fmt.Printf("Lambda = %10.4e, SSE = %12.6e, PENSSE = %12.6e, df = %8.3f", res.Lambda, res.SSE, res.PENSSE, res.DF)
	if math.IsNaN(res.GCV) {
		fmt.Printf(", GCV undefined\n")
	} else {
		fmt.Printf(", GCV = %12.6e\n", res.GCV)
	}
	printWarnings(res, verbose)
}
