package main

import (
	"fmt"

	"github.com/anime-shed/red-inspector-go/internal/config"
	"github.com/anime-shed/red-inspector-go/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps persistent flag names to their config keys
var flagKeys = map[string]string{
	"input":         "input_dir",
	"output":        "output_file",
	"red-threshold": "red_threshold",
	"tolerance":     "tolerance",
	"seed":          "seed",
	"workers":       "workers",
	"source":        "source",
	"log-level":     "log.level",
	"log-format":    "log.format",
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "redinspect",
		Short: "Measure the share of red pixels in plot images",
		Long: `Scan a directory of .jpg/.jpeg/.png plots, measure the percentage of
strongly red pixels in each and map it to a randomized magnitude.

Results are printed sorted by red percentage, highest first, and saved as CSV.
Running without a subcommand is the same as "redinspect scan".

Every flag can also be set in a YAML config file (default ./config/config.yaml)
or through REDINSPECT_* environment variables, e.g. REDINSPECT_INPUT_DIR.`,
		Example: `  # Scan ./EQ_Plots and write red_analysis3.csv
  redinspect

  # Reproducible magnitudes, four decoders in parallel
  redinspect scan -i ./plots -o report.csv --seed 42 --workers 4

  # Serve the HTTP API
  redinspect serve --config config/config.yaml`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, v, configFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to config file (default: ./config/config.yaml when present)")
	flags.StringP("input", "i", "EQ_Plots", "Directory holding the images to scan")
	flags.StringP("output", "o", "red_analysis3.csv", "Path of the CSV report")
	flags.Int("red-threshold", 200, "Red channel value a pixel must exceed")
	flags.Int("tolerance", 50, "Margin by which red must exceed green and blue")
	flags.Int64("seed", 0, "Seed for the magnitude sampler (0 seeds from the clock)")
	flags.Int("workers", 1, "Number of images decoded concurrently")
	flags.String("source", config.SourceLocal, "Image source: local or azure")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "text", "Log format: text or json")

	bindFlags(v, flags)

	rootCmd.AddCommand(
		newScanCmd(v, &configFile),
		newServeCmd(v, &configFile),
		newVersionCmd(),
	)

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("redinspect {{.Version}}\n")

	return rootCmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}
}

// loadConfig merges the config file into v, decodes it and applies the
// logging settings.
func loadConfig(v *viper.Viper, configFile string) (*config.Config, error) {
	if err := config.ReadFile(v, configFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	if err := logger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}
