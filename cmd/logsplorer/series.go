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
	"fmt"
	"io"
	"math"
	"sort"

	fcolor "github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/umbralcalc/logsplorer/color"
	"github.com/umbralcalc/logsplorer/config"
	"github.com/umbralcalc/logsplorer/query"
	"github.com/umbralcalc/logsplorer/series"
	"github.com/umbralcalc/logsplorer/service"
)

func newSeriesCmd() *cobra.Command {
	cfg := config.Default()
	var noColor, bySource bool
	cmd := &cobra.Command{
		Use:   "series <query>",
		Short: "Print the series a query plots",
		Long: `Run a query and print one line per plotted series, in its chart color.
With --by-source, series are grouped under the log they were read from.

Example:
  logsplorer series --log-root runs "filenames=a.log,b.log&objective<3"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("log-root") {
				env := config.Default()
				env.ApplyEnv()
				cfg.LogRoot = env.LogRoot
			}
			fetcher, err := service.Fetcher(cfg, logrus.StandardLogger())
			if err != nil {
				return err
			}
			results, err := fetcher.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			set := series.Aggregate(query.SeriesEntries(results), color.NewTable(nil))
			out := cmd.OutOrStdout()
			if bySource {
				return printBySource(out, set, noColor)
			}
			for _, s := range set.Ordered() {
				fmt.Fprintf(out, "%s\t%s\t%s\n", paint(s, s.Label, noColor), s.Color, summarize(s.Points))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.LogRoot, "log-root", cfg.LogRoot, "The root path for queried logs")
	cmd.Flags().StringVar(&cfg.APIURL, "api-url", "", "Query a remote logsplorer API instead of local logs")
	cmd.Flags().IntVar(&cfg.CacheCapacity, "cache-capacity", cfg.CacheCapacity, "Parsed log cache size")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Print series labels uncolored")
	cmd.Flags().BoolVar(&bySource, "by-source", false, "Group series under their source log")
	return cmd
}

// paint renders text in the series' chart color.
func paint(s *series.Series, text string, noColor bool) string {
	if noColor {
		return text
	}
	return fcolor.RGB(int(s.Color.R), int(s.Color.G), int(s.Color.B)).Sprint(text)
}

// printBySource prints each source once, in order, followed by its series
// in partition order.
func printBySource(w io.Writer, set series.Set, noColor bool) error {
	type partitionSeries struct {
		partition int
		series    *series.Series
	}
	bySource := map[string][]partitionSeries{}
	for _, s := range set {
		source, partition, err := s.Key.Split()
		if err != nil {
			return err
		}
		bySource[source] = append(bySource[source], partitionSeries{partition, s})
	}
	sources := make([]string, 0, len(bySource))
	for source := range bySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		partitions := bySource[source]
		sort.Slice(partitions, func(a, b int) bool {
			return partitions[a].partition < partitions[b].partition
		})
		fmt.Fprintln(w, source)
		for _, ps := range partitions {
			label := paint(ps.series, fmt.Sprintf("partition %d", ps.partition), noColor)
			fmt.Fprintf(w, "  %s\t%s\t%s\n", label, ps.series.Color, summarize(ps.series.Points))
		}
	}
	return nil
}

// summarize describes a series' points: their count, the finite objective
// range, and the last objective.
func summarize(points []series.Point) string {
	if len(points) == 0 {
		return "points=0"
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			continue
		}
		lo, hi = math.Min(lo, p.Y), math.Max(hi, p.Y)
	}
	last := points[len(points)-1]
	if lo > hi {
		return fmt.Sprintf("points=%d last=%d:%g", len(points), last.X, last.Y)
	}
	return fmt.Sprintf("points=%d min=%g max=%g last=%d:%g", len(points), lo, hi, last.X, last.Y)
}
