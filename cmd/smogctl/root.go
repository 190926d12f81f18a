package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/config"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/geo"
)

var (
	registryFile string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "smogctl",
	Short: "Offline smog correlation analysis for Punjab districts",
	Long: `smogctl runs the same analysis as smogd over exported collector records
and answers registry questions such as neighbors and distances.

Analysis settings are read from the environment (and .env) exactly as smogd
reads them, so NEIGHBOR_K, MAX_LAG_DAYS, WIND_SECTORS and friends apply here too.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&registryFile, "registry", "",
		"District registry YAML (default: built-in Punjab registry, or REGISTRY_FILE)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text",
		"Output format: text or json")

	rootCmd.AddCommand(analyzeCmd, districtsCmd, neighborsCmd, distanceCmd, firesCmd)
}

// loadConfig reads the service configuration and applies the --registry override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if registryFile != "" {
		cfg.RegistryFile = registryFile
	}
	return cfg, nil
}

func loadIndex(cfg *config.Config) (*geo.Index, *geo.Registry, error) {
	registry := geo.NewRegistry(cfg.RegistrySource(), cfg.NeighborK)
	ix, err := registry.Index()
	if err != nil {
		return nil, nil, err
	}
	return ix, registry, nil
}

func wantJSON() (bool, error) {
	switch outputFormat {
	case "json":
		return true, nil
	case "text":
		return false, nil
	default:
		return false, fmt.Errorf("unknown format %q (want text or json)", outputFormat)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}
