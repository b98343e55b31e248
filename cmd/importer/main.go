// Command importer loads field boundaries for a farm from GeoJSON
// FeatureCollections.
//
//	importer --farm <farm-id> fields.geojson [more.geojson ...]
//
// Feature properties "name" (or "nome") and "crop" (or "cultura") become the
// field name and crop. Features without a polygonal geometry are skipped.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/postgres"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/usecases"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/config"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/logging"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/retry"
)

// batchSize bounds the number of fields inserted per transaction.
const batchSize = 500

func main() {
	var (
		farmID string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:          "importer --farm <farm-id> <file.geojson>...",
		Short:        "Import field boundaries from GeoJSON",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("agrovetor-importer")
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Format)

			var fields []domain.Field
			for _, path := range args {
				fs, err := readFields(path)
				if err != nil {
					return err
				}
				slog.Info("file parsed", "file", path, "fields", len(fs))
				fields = append(fields, fs...)
			}
			if dryRun {
				fmt.Printf("%d fields ready for farm %s\n", len(fields), farmID)
				return nil
			}

			ctx := cmd.Context()
			db, err := retry.Value(ctx, "postgres", retry.Startup, func() (*postgres.DB, error) {
				return postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
			})
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			svc := usecases.NewFieldService(postgres.NewFieldRepo(db), postgres.NewFarmRepo(db), nil)
			for start := 0; start < len(fields); start += batchSize {
				end := min(start+batchSize, len(fields))
				if err := svc.Import(ctx, farmID, fields[start:end]); err != nil {
					return fmt.Errorf("import fields %d-%d: %w", start, end-1, err)
				}
				slog.Info("batch imported", "farm_id", farmID, "from", start, "to", end-1)
			}
			slog.Info("import complete", "farm_id", farmID, "fields", len(fields))
			return nil
		},
	}
	cmd.Flags().StringVar(&farmID, "farm", "", "farm id the fields belong to")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate files without writing")
	_ = cmd.MarkFlagRequired("farm")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

// readFields turns the polygonal features of a FeatureCollection into fields.
func readFields(path string) ([]domain.Field, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	fields := make([]domain.Field, 0, len(fc.Features))
	for i, f := range fc.Features {
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			slog.Warn("feature skipped: not a polygon", "file", path, "index", i)
			continue
		}

		name := firstString(f.Properties, "name", "nome", "talhao")
		if name == "" {
			name = fmt.Sprintf("Talhão %d", i+1)
		}
		fields = append(fields, domain.Field{
			Name:     name,
			Crop:     firstString(f.Properties, "crop", "cultura"),
			Boundary: geojson.NewGeometry(f.Geometry),
		})
	}
	return fields, nil
}

func firstString(props geojson.Properties, keys ...string) string {
	for _, k := range keys {
		if v, ok := props[k]; ok {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" && v != nil {
				return s
			}
		}
	}
	return ""
}
