package main

import (
	"github.com/anime-shed/red-inspector-go/internal/batch"
	"github.com/anime-shed/red-inspector-go/internal/factory"
	"github.com/anime-shed/red-inspector-go/internal/logger"
	"github.com/anime-shed/red-inspector-go/internal/observer"
	"github.com/anime-shed/red-inspector-go/internal/report"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newScanCmd(v *viper.Viper, configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Analyse every image of the input directory and write the CSV report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, v, *configFile)
		},
	}
}

func runScan(cmd *cobra.Command, v *viper.Viper, configFile string) error {
	cfg, err := loadConfig(v, configFile)
	if err != nil {
		return err
	}

	components := factory.NewComponentFactory()
	source, err := components.SourceFactory.CreateSource(cfg)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	opts := components.AnalyzerFactory.Options(cfg)
	out := cmd.OutOrStdout()
	driver := batch.NewDriver(
		source,
		components.AnalyzerFactory.CreateEstimator(cfg),
		components.AnalyzerFactory.CreateSampler(cfg),
		batch.WithWorkers(opts.MaxWorkers),
		batch.WithEvents(events),
		batch.WithConsole(out),
		batch.WithRunID(runID),
	)

	records, err := driver.Run(cmd.Context())
	if err != nil {
		return err
	}

	if err := report.WriteCSVFile(cfg.OutputFile, records); err != nil {
		return err
	}
	if err := report.PrintSummary(out, records, cfg.OutputFile); err != nil {
		return err
	}

	snap := metrics.Snapshot()
	logger.WithFields(logrus.Fields{
		"run_id":          runID,
		"processed":       snap.SuccessfulAnalyses,
		"failed":          snap.FailedAnalyses,
		"avg_decode_time": snap.AvgProcessingTime,
		"output":          cfg.OutputFile,
	}).Info("Report written")

	return nil
}
