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
	"gonum.org/v1/gonum/diff/fd"

	"github.com/notargets/gopda/InputParameters"
	"github.com/notargets/gopda/pda"
	"github.com/notargets/gopda/utils"
)

// ObjectiveCmd represents the objective command
var ObjectiveCmd = &cobra.Command{
	Use:   "objective",
	Short: "Evaluate the profiled objective once at the starting operator",
	Long: `
Evaluates SSE, PENSSE, df, GCV and the gradient of SSE for the starting
weights of a problem file, optionally checking the gradient against central
differences.

gopda objective -I problem.yaml --check`,
	Run: func(cmd *cobra.Command, args []string) {
		fileName, _ := cmd.Flags().GetString("inputConditionsFile")
		check, _ := cmd.Flags().GetBool("check")
		countPerf, _ := cmd.Flags().GetBool("perf")
		pp, err := readProblem(fileName)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		verbose := viper.GetBool("verbose")
		ev, err := evaluateProblem(pp, verbose, check, countPerf)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		printEvaluation(ev, verbose)
	},
}

func init() {
	rootCmd.AddCommand(ObjectiveCmd)
	ObjectiveCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file describing the basis, operator and data")
	ObjectiveCmd.Flags().BoolP("check", "c", false, "compare the gradient with central differences")
	ObjectiveCmd.Flags().Bool("perf", false, "count CPU instructions of the evaluation (Linux)")
}

type evaluation struct {
	Result   *pda.Result
	Layout   *pda.Layout
	Bvec     []float64
	BmatCond float64
	Numeric  []float64 // nil unless checked
	MaxErr   float64   // largest gradient difference over max(1, largest numeric entry)

	// Instructions is zero unless counted
	Instructions uint64
}

func evaluateProblem(pp *InputParameters.ProblemParameters, verbose, check, countPerf bool) (ev *evaluation, err error) {
	data, op, err := pp.Build()
	if err != nil {
		return
	}
	var o *pda.Objective
	if o, err = pda.NewObjective(op, data, pp.Lambdas()[0], pda.WithVerbose(verbose)); err != nil {
		return
	}
	ev = &evaluation{
		Layout:   o.Layout(),
		Bvec:     o.InitialParameters(),
		BmatCond: data.Bmat.ConditionNumber(),
	}
	evalGrad := func() (err error) {
		ev.Result, err = o.EvalGrad(ev.Bvec)
		return
	}
	if countPerf {
		if ev.Instructions, err = countInstructions(evalGrad); err != nil {
			ev = nil
			return
		}
	} else if err = evalGrad(); err != nil {
		ev = nil
		return
	}
	if !check || ev.Layout.Size == 0 {
		return
	}
	var evalErr error
	sse := func(x []float64) float64 {
		res, err := o.Eval(x)
		if err != nil {
			evalErr = err
			return math.NaN()
		}
		return res.SSE
	}
	ev.Numeric = fd.Gradient(nil, sse, append([]float64(nil), ev.Bvec...),
		&fd.Settings{Formula: fd.Central, Step: 1.e-6})
	if evalErr != nil {
		ev, err = nil, evalErr
		return
	}
	var (
		L        = ev.Layout.Size
		numeric  = utils.NewMatrix(1, L, ev.Numeric)
		analytic = utils.NewMatrix(1, L, ev.Result.DSSE)
		scale    = math.Max(1, numeric.Copy().Apply(math.Abs).Max())
	)
	ev.MaxErr = numeric.MaxAbsDiff(analytic) / scale
	return
}

func printEvaluation(ev *evaluation, verbose bool) {
	res := ev.Result
	fmt.Printf("Lambda = %10.4e, ||R||/||Bmat|| = %10.4e, cond(Bmat) = %10.4e\n", res.Lambda, res.CondNo, ev.BmatCond)
	fmt.Printf("SSE = %12.6e, PENSSE = %12.6e, df = %8.3f, GCV = %12.6e\n", res.SSE, res.PENSSE, res.DF, res.GCV)
	for i, name := range ev.Layout.Names() {
		fmt.Printf("%10s = %14.8g, dSSE = %14.6e", name, ev.Bvec[i], res.DSSE[i])
		if ev.Numeric != nil {
			fmt.Printf(", central difference = %14.6e", ev.Numeric[i])
		}
		fmt.Printf("\n")
	}
	if ev.Numeric != nil {
		fmt.Printf("Max scaled gradient difference = %8.3e\n", ev.MaxErr)
	}
	if ev.Instructions != 0 {
		fmt.Printf("CPU instructions = %d\n", ev.Instructions)
	}
	printWarnings(res, verbose)
}

// pendingWarnings returns the warnings of res not already echoed by a verbose
// objective
func pendingWarnings(res *pda.Result, verbose bool) []pda.Warning {
	if verbose {
		return nil
	}
	return res.Warnings
}

func printWarnings(res *pda.Result, verbose bool) {
	for _, w := range pendingWarnings(res, verbose) {
		fmt.Printf("warning: %s\n", w)
	}
}
