// Command coverage runs a coverage analysis locally, without the database or
// any of the services.
//
//	coverage analyze --log flight.csv --targets fields.geojson --swath 20
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/kmlexport"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/logging"
)

func main() {
	root := &cobra.Command{
		Use:          "coverage",
		Short:        "Aerial spraying coverage tools",
		SilenceUsage: true,
	}
	root.AddCommand(analyzeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func analyzeCmd() *cobra.Command {
	var (
		logPath     string
		targetsPath string
		swath       float64
		format      string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compare a flight log against target fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.Setup("warn", "text")

			switch format {
			case "json", "kml", "summary":
			default:
				return fmt.Errorf("unknown format %q (json, kml or summary)", format)
			}

			logData, err := os.ReadFile(logPath)
			if err != nil {
				return fmt.Errorf("read log: %w", err)
			}
			targets, err := readTargets(targetsPath)
			if err != nil {
				return err
			}

			out := coverage.Run(coverage.Input{
				Log:              logData,
				SwathWidthMeters: swath,
				Targets:          targets,
			})

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := render(w, format, out); err != nil {
				return err
			}
			if !out.OK() {
				return out.Err()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logPath, "log", "", "flight log file (one lat,lon per line)")
	cmd.Flags().StringVar(&targetsPath, "targets", "", "GeoJSON FeatureCollection of target fields")
	cmd.Flags().Float64Var(&swath, "swath", 0, "swath width in meters")
	cmd.Flags().StringVar(&format, "format", "summary", "output format: json, kml or summary")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	_ = cmd.MarkFlagRequired("log")
	_ = cmd.MarkFlagRequired("targets")
	_ = cmd.MarkFlagRequired("swath")
	return cmd
}

func readTargets(path string) ([]orb.Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse targets: %w", err)
	}
	targets := make([]orb.Geometry, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry != nil {
			targets = append(targets, f.Geometry)
		}
	}
	return targets, nil
}

func render(w io.Writer, format string, out coverage.Outcome) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "kml":
		if !out.OK() {
			return out.Err()
		}
		return kmlexport.Write(w, "Cobertura", out.Result)
	}

	if !out.OK() {
		_, err := fmt.Fprintf(w, "%s: %s (%s at %s)\n", out.Status, out.Failure.Message, out.Failure.Kind, out.Failure.Stage)
		return err
	}
	r := out.Result
	_, err := fmt.Fprintf(w,
		"Status:     %s\nPoints:     %d\nFlight:     %.0f m\nSwath:      %.1f m\nPlanned:    %.2f ha\nApplied:    %.2f ha\nCorrect:    %.2f ha\nWaste:      %.2f ha\nMissed:     %.2f ha\nCoverage:   %.1f%%\n",
		out.Status, r.PointCount, r.FlightLengthMeters, r.SwathWidthMeters,
		r.PlannedHa, r.AppliedHa, r.CorrectHa, r.WasteHa, r.MissedHa, r.CoveragePercent)
	return err
}
