package main

import (
	"github.com/LdDl/lspiv-go/lspiv"
	"github.com/LdDl/lspiv-go/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCoverageCmd(a *app) *cobra.Command {
	var (
		source  sourceFlags
		outDir  string
		perCell int
		plain   bool
	)
	coverageCmd := &cobra.Command{
		Use:   "coverage",
		Short: "Select a subset of tracks covering the measurement grid",
		Long: `Selects tracks the best measurements of every grid cell come from and copies them into
the output directory. By default a track claimed by one cell is not counted again by later cells.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loaded, result, err := a.runApproximation(cmd.Context(), &source)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("per-cell") {
				perCell = cfg.Sampling.MeasurementsPerCell
			}
			var ids []uuid.UUID
			if plain {
				ids = result.DB.GetCoverage(perCell)
			} else {
				ids = result.DB.GetUniqueCoverage(perCell)
			}
			if err := writeCoverage(loaded, ids, outDir); err != nil {
				return err
			}
			a.logger.Info("Coverage tracks written",
				zap.String("dir", outDir),
				zap.Int("selected", len(ids)),
				zap.Int("tracks", len(loaded.tracks)))
			return nil
		},
	}
	source.register(coverageCmd)
	coverageCmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to copy selected tracks to")
	coverageCmd.Flags().IntVar(&perCell, "per-cell", 0, "Tracks per cell (default measurements per cell of the config)")
	coverageCmd.Flags().BoolVar(&plain, "plain", false, "Let every cell choose tracks independently of other cells")
	coverageCmd.MarkFlagRequired("out")
	return coverageCmd
}

// writeCoverage copies track files when tracks came from directories and writes new ones otherwise
func writeCoverage(loaded *loadedTracks, ids []uuid.UUID, outDir string) error {
	byDir := make(map[string][]uuid.UUID)
	selected := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
		if dir, ok := loaded.origin[id]; ok {
			byDir[dir] = append(byDir[dir], id)
		}
	}
	for dir, dirIDs := range byDir {
		if err := storage.CopyTrackFiles(dir, outDir, dirIDs); err != nil {
			return err
		}
	}
	fromDB := make([]*lspiv.Track, 0)
	for _, track := range loaded.tracks {
		if _, ok := selected[track.GetID()]; !ok {
			continue
		}
		if _, ok := loaded.origin[track.GetID()]; ok {
			continue
		}
		fromDB = append(fromDB, track)
	}
	return storage.SaveTrackFiles(outDir, fromDB)
}
