package main

import (
	"github.com/LdDl/lspiv-go/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pipeline configuration files",
	}

	var (
		pipelinePath string
		approxPath   string
		datasetFile  string
		outputDir    string
		inputDir     string
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write default configuration files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pipelinePath != "" {
				if err := config.DefaultPipelineConfig(datasetFile, outputDir).Save(pipelinePath); err != nil {
					return err
				}
				a.logger.Info("Pipeline config written", zap.String("path", pipelinePath))
			}
			if approxPath != "" {
				if err := config.DefaultApproximationConfig(inputDir).Save(approxPath); err != nil {
					return err
				}
				a.logger.Info("Approximation config written", zap.String("path", approxPath))
			}
			return nil
		},
	}
	initCmd.Flags().StringVar(&pipelinePath, "pipeline", "", "Path of pipeline config to write")
	initCmd.Flags().StringVar(&approxPath, "approx", "", "Path of approximation config to write")
	initCmd.Flags().StringVar(&datasetFile, "dataset", "", "Dataset file of the pipeline config")
	initCmd.Flags().StringVar(&outputDir, "output-dir", "", "Output directory of the pipeline config")
	initCmd.Flags().StringVar(&inputDir, "input-dir", "", "Input directory (tracking run) of the approximation config")
	initCmd.MarkFlagsOneRequired("pipeline", "approx")

	configCmd.AddCommand(initCmd)
	return configCmd
}
