/*
	Copyright 2023 Google Inc.
	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at
		https://www.apache.org/licenses/LICENSE-2.0
	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package main

import (
	"bufio"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"
	logreader "github.com/umbralcalc/logsplorer/log_reader"
)

// synthesize writes an objective log of partitions optimisers, each taking
// iterations noisy steps toward a minimum.  Entries of the partitions are
// interleaved, as concurrent optimisers log them.
func synthesize(w *logreader.Writer, partitions, iterations int, src *rand.Rand) error {
	rates := make([]float64, partitions)
	for p := range rates {
		rates[p] = 0.01 + 0.1*src.Float64()
	}
	for i := 0; i < iterations; i++ {
		for p := 0; p < partitions; p++ {
			objective := 10*math.Exp(-rates[p]*float64(i)) + 0.1*src.NormFloat64()
			if err := w.Write(logreader.Entry{
				PartitionIndex: p,
				Objective:      objective,
				FloatParams:    map[string][]float64{"learning_rate": {rates[p]}},
				IntParams:      map[string][]int64{"step": {int64(i)}},
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func newSynthCmd() *cobra.Command {
	var (
		out        string
		partitions int
		iterations int
		seed       uint64
	)
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic objective log",
		Long: `Write a synthetic optimiser objective log, one logrus JSON record per entry.

Example:
  logsplorer synth --out run.log --partitions 3 --iterations 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if partitions <= 0 || iterations < 0 {
				return fmt.Errorf("--partitions must be positive and --iterations non-negative")
			}
			dest := cmd.OutOrStdout()
			if out != "" && out != "-" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer file.Close()
				dest = file
			}
			bw := bufio.NewWriter(dest)
			src := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			if err := synthesize(logreader.NewWriter(bw), partitions, iterations, src); err != nil {
				return err
			}
			return bw.Flush()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Output log path; - writes to stdout")
	cmd.Flags().IntVar(&partitions, "partitions", 2, "Number of partitions")
	cmd.Flags().IntVar(&iterations, "iterations", 20, "Entries per partition")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed")
	return cmd
}
