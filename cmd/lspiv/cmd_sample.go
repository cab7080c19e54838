package main

import (
	"path/filepath"

	"github.com/LdDl/lspiv-go/storage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errRunWithoutDB = errors.New("--run requires --db")

func newSampleCmd(a *app) *cobra.Command {
	var (
		source  sourceFlags
		outPath string
		run     string
	)
	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample velocity measurements from recorded tracks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if run != "" && source.dbPath == "" {
				return errRunWithoutDB
			}
			ctx := cmd.Context()
			cfg, _, result, err := a.runApproximation(ctx, &source)
			if err != nil {
				return err
			}
			if run != "" {
				store, err := storage.Open(ctx, source.dbPath, a.logger)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.SaveMeasurements(ctx, run, result.Measurements); err != nil {
					return err
				}
			}
			if outPath == "" {
				outPath = filepath.Join(cfg.InputDir, "measurements.json")
			}
			if err := storage.SaveMeasurementsFile(outPath, result.Measurements); err != nil {
				return err
			}
			a.logger.Info("Measurements written", zap.String("path", outPath), zap.Int("measurements", len(result.Measurements)))
			return nil
		},
	}
	source.register(sampleCmd)
	sampleCmd.Flags().StringVarP(&outPath, "out", "o", "", "Measurements file (default measurements.json in the input directory)")
	sampleCmd.Flags().StringVar(&run, "run", "", "Also store measurements in the database under this run name")
	return sampleCmd
}
